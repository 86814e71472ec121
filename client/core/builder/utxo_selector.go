package builder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/golshanaramesh/atomicals-js/client/core/transport"
)

// UTXO 表示一个可用于支付手续费的未花费输出
type UTXO struct {
	TxHash    string         // 交易哈希
	Vout      uint32         // 输出索引
	Amount    btcutil.Amount // 金额（聪）
	ScriptPub []byte         // 锁定脚本
}

// UTXOSelector UTXO选择策略接口
type UTXOSelector interface {
	// Select 从UTXOs中选择足够支付目标金额（包括手续费）的UTXO集合
	//
	// 返回：
	//   selected: 选中的UTXO列表
	//   totalAmount: 选中UTXO的总金额
	//   error: 如果余额不足或其他错误
	Select(utxos []UTXO, targetAmount btcutil.Amount) (selected []UTXO, totalAmount btcutil.Amount, err error)
}

var (
	// ErrInsufficientBalance 余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNoUTXOs 没有可用的UTXO
	ErrNoUTXOs = errors.New("no available UTXOs")
)

// UTXO 选择策略名称
const (
	StrategyGreedy   = "greedy"
	StrategyFirstFit = "first-fit"
)

// ErrUnknownStrategy 未知的 UTXO 选择策略
var ErrUnknownStrategy = errors.New("unknown utxo strategy")

// NewSelector 按名称创建选择器，空名称使用 greedy
func NewSelector(strategy string) (UTXOSelector, error) {
	switch strategy {
	case "", StrategyGreedy:
		return NewGreedySelector(), nil
	case StrategyFirstFit:
		return NewFirstFitSelector(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// FirstFitSelector 第一个足够的选择策略
//
// 策略：
//  1. 优先尝试找到单个UTXO满足需求（最小化输入数量）
//  2. 如果没有单个UTXO足够，则按顺序累加直到满足需求
type FirstFitSelector struct{}

// NewFirstFitSelector 创建FirstFit选择器
func NewFirstFitSelector() UTXOSelector {
	return &FirstFitSelector{}
}

// Select 实现UTXOSelector接口
func (s *FirstFitSelector) Select(utxos []UTXO, targetAmount btcutil.Amount) ([]UTXO, btcutil.Amount, error) {
	if len(utxos) == 0 {
		return nil, 0, ErrNoUTXOs
	}
	if targetAmount <= 0 {
		return nil, 0, fmt.Errorf("invalid target amount")
	}

	for _, utxo := range utxos {
		if utxo.Amount >= targetAmount {
			return []UTXO{utxo}, utxo.Amount, nil
		}
	}

	return accumulateUTXOs(utxos, targetAmount)
}

// GreedySelector 贪心最少输入选择策略
//
// 策略：按金额从大到小累加，直到总金额>=目标金额
type GreedySelector struct{}

// NewGreedySelector 创建Greedy选择器
func NewGreedySelector() UTXOSelector {
	return &GreedySelector{}
}

// Select 实现UTXOSelector接口
func (s *GreedySelector) Select(utxos []UTXO, targetAmount btcutil.Amount) ([]UTXO, btcutil.Amount, error) {
	if len(utxos) == 0 {
		return nil, 0, ErrNoUTXOs
	}
	if targetAmount <= 0 {
		return nil, 0, fmt.Errorf("invalid target amount")
	}

	return accumulateUTXOs(SortUTXOsByAmount(utxos), targetAmount)
}

// accumulateUTXOs 累加UTXO直到满足目标金额
func accumulateUTXOs(utxos []UTXO, targetAmount btcutil.Amount) ([]UTXO, btcutil.Amount, error) {
	selected := []UTXO{}
	var total btcutil.Amount

	for _, utxo := range utxos {
		selected = append(selected, utxo)
		total += utxo.Amount

		if total >= targetAmount {
			return selected, total, nil
		}
	}

	return nil, 0, fmt.Errorf("%w: need %s, have %s",
		ErrInsufficientBalance,
		targetAmount.String(),
		total.String(),
	)
}

// CalculateTotalAmount 计算UTXO列表的总金额
func CalculateTotalAmount(utxos []UTXO) btcutil.Amount {
	var total btcutil.Amount
	for _, utxo := range utxos {
		total += utxo.Amount
	}
	return total
}

// SortUTXOsByAmount 按金额排序UTXO（从大到小，不修改原切片）
func SortUTXOsByAmount(utxos []UTXO) []UTXO {
	sorted := make([]UTXO, len(utxos))
	copy(sorted, utxos)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})

	return sorted
}

// FundingUTXOs 转换索引节点返回的 UTXO
// 承载 atomical 的输出会被跳过，避免误将其作为手续费花掉
func FundingUTXOs(utxos []*transport.UTXO, pkScript []byte) []UTXO {
	out := make([]UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u == nil || len(u.Atomicals) > 0 || u.Value <= 0 {
			continue
		}
		out = append(out, UTXO{
			TxHash:    u.TxHash,
			Vout:      u.TxPos,
			Amount:    btcutil.Amount(u.Value),
			ScriptPub: pkScript,
		})
	}
	return out
}
