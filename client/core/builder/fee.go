package builder

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// VirtualSize 计算交易的虚拟大小（vbytes）
func VirtualSize(tx *wire.MsgTx) int64 {
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))
	return (weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor
}

// FeeForVSize 按费率计算手续费
func FeeForVSize(vsize, satsByte int64) int64 {
	return vsize * satsByte
}

// keyPathWitness 估算用的 key-path 花费 witness（64 字节 schnorr 签名）
func keyPathWitness() wire.TxWitness {
	return wire.TxWitness{make([]byte, 64)}
}

// scriptPathWitness 估算用的 script-path 花费 witness
func scriptPathWitness(spend *commitSpend) wire.TxWitness {
	return wire.TxWitness{make([]byte, 64), spend.script, spend.controlBlock}
}

// sumOutputs 输出总额
func sumOutputs(outs []*wire.TxOut) int64 {
	var total int64
	for _, out := range outs {
		total += out.Value
	}
	return total
}
