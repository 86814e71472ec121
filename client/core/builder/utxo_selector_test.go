package builder

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golshanaramesh/atomicals-js/client/core/transport"
)

func makeUTXOs(amounts ...btcutil.Amount) []UTXO {
	utxos := make([]UTXO, len(amounts))
	for i, a := range amounts {
		utxos[i] = UTXO{TxHash: fundingTxHash, Vout: uint32(i), Amount: a}
	}
	return utxos
}

func TestFirstFitSelector(t *testing.T) {
	tests := []struct {
		name      string
		utxos     []UTXO
		target    btcutil.Amount
		wantCount int
		wantTotal btcutil.Amount
		wantErr   error
	}{
		{"single sufficient", makeUTXOs(100, 5000, 300), 1000, 1, 5000, nil},
		{"accumulate in order", makeUTXOs(400, 300, 500), 600, 2, 700, nil},
		{"insufficient", makeUTXOs(100, 200), 1000, 0, 0, ErrInsufficientBalance},
		{"empty", nil, 1000, 0, 0, ErrNoUTXOs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, total, err := NewFirstFitSelector().Select(tt.utxos, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, selected, tt.wantCount)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestGreedySelector(t *testing.T) {
	utxos := makeUTXOs(400, 300, 500)

	selected, total, err := NewGreedySelector().Select(utxos, 600)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, btcutil.Amount(500), selected[0].Amount)
	assert.Equal(t, btcutil.Amount(900), total)

	// 原切片顺序不变
	assert.Equal(t, btcutil.Amount(400), utxos[0].Amount)

	_, _, err = NewGreedySelector().Select(utxos, 0)
	assert.Error(t, err)
}

func TestNewSelector(t *testing.T) {
	tests := []struct {
		strategy string
		want     UTXOSelector
		wantErr  bool
	}{
		{"", &GreedySelector{}, false},
		{StrategyGreedy, &GreedySelector{}, false},
		{StrategyFirstFit, &FirstFitSelector{}, false},
		{"smallest", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			got, err := NewSelector(tt.strategy)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStrategy)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestFundingUTXOs(t *testing.T) {
	script := []byte{0x51, 0x20}
	listed := []*transport.UTXO{
		{TxHash: fundingTxHash, TxPos: 0, Value: 1000},
		{TxHash: fundingTxHash, TxPos: 1, Value: 2000, Atomicals: []string{"abci0"}},
		nil,
		{TxHash: fundingTxHash, TxPos: 2, Value: 0},
	}

	got := FundingUTXOs(listed, script)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(0), got[0].Vout)
	assert.Equal(t, btcutil.Amount(1000), got[0].Amount)
	assert.Equal(t, script, got[0].ScriptPub)
	assert.Equal(t, btcutil.Amount(1000), CalculateTotalAmount(got))
}
