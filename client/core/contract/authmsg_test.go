package contract

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestBuildAuthorizationMessageLayout(t *testing.T) {
	outputs := []*wire.TxOut{
		wire.NewTxOut(1000, mustHex(t, "5120aabb")),
		wire.NewTxOut(0x0102030405, mustHex(t, "6a")),
	}

	msg, err := BuildAuthorizationMessage(testCommitTxID, 2, mustHex(t, "deadbeef"), mustHex(t, "51ab"), outputs)
	require.NoError(t, err)

	want := mustHex(t,
		"3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a"+ // reverse(txid)
			"02000000"+ // LE32(vout)
			"deadbeef"+ // unlock
			"51ab"+ // lock
			"e803000000000000"+"5120aabb"+
			"0504030201000000"+"6a")
	assert.Equal(t, want, msg)
}

func TestBuildAuthorizationMessageDeterministic(t *testing.T) {
	outputs := []*wire.TxOut{wire.NewTxOut(546, []byte{0x51})}

	a, err := BuildAuthorizationMessage(testCommitTxID, 0, []byte{1}, []byte{2}, outputs)
	require.NoError(t, err)
	b, err := BuildAuthorizationMessage(testCommitTxID, 0, []byte{1}, []byte{2}, outputs)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := BuildAuthorizationMessage(testCommitTxID, 1, []byte{1}, []byte{2}, outputs)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestBuildAuthorizationMessageRejectsBadTxID(t *testing.T) {
	for _, txid := range []string{"", "abcd", "zz" + testCommitTxID[2:]} {
		_, err := BuildAuthorizationMessage(txid, 0, nil, nil, nil)
		assert.Error(t, err, txid)
	}
}

func TestSignAuthorizationMessage(t *testing.T) {
	w := newWallets(t)
	key, err := w.auth.PrivateKey(testNet)
	require.NoError(t, err)
	pub, err := w.auth.PublicKeyBytes()
	require.NoError(t, err)
	curve := newTestCurve(t)

	msg := []byte("authorization message")
	sig, err := SignAuthorizationMessage(curve, key.Serialize(), pub, msg)
	require.NoError(t, err)

	hash := sha256.Sum256(msg)
	assert.True(t, curve.VerifyDER(pub, hash[:], sig))

	// 单个比特翻转后验证失败
	flipped := bytes.Clone(sig)
	flipped[len(flipped)-1] ^= 0x01
	assert.False(t, curve.VerifyDER(pub, hash[:], flipped))
}

func TestSignAuthorizationMessageSelfVerifyFails(t *testing.T) {
	w := newWallets(t)
	authKey, err := w.auth.PrivateKey(testNet)
	require.NoError(t, err)
	otherPub, err := w.funding.PublicKeyBytes()
	require.NoError(t, err)

	_, err = SignAuthorizationMessage(newTestCurve(t), authKey.Serialize(), otherPub, []byte("m"))
	var integrityErr *SignatureIntegrityError
	assert.ErrorAs(t, err, &integrityErr)
	assert.ErrorIs(t, err, ErrAuthKeyMismatch)

	_, err = SignAuthorizationMessage(newTestCurve(t), []byte{1, 2, 3}, otherPub, []byte("m"))
	assert.ErrorAs(t, err, &integrityErr)
}

func TestEncodeSignatureScript(t *testing.T) {
	sig := bytes.Repeat([]byte{0x30}, 71)

	script, err := EncodeSignatureScript(sig)
	require.NoError(t, err)

	tok := txscript.MakeScriptTokenizer(0, script)
	require.True(t, tok.Next())
	assert.Equal(t, byte(txscript.OP_RETURN), tok.Opcode())
	require.True(t, tok.Next())
	assert.Equal(t, SignatureTag, tok.Data())
	require.True(t, tok.Next())
	assert.Equal(t, sig, tok.Data())
	assert.False(t, tok.Next())
	require.NoError(t, tok.Err())

	assert.True(t, txscript.IsUnspendable(script))

	_, err = EncodeSignatureScript(nil)
	assert.Error(t, err)
}
