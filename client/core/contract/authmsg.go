package contract

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/golshanaramesh/atomicals-js/internal/core/infrastructure/crypto/secp256k1"
)

// BuildAuthorizationMessage 构建授权消息：
//
//	reverse(txid) || LE32(vout) || unlock || lock || Σ(LE64(value) || pkScript)
//
// outputs 为签名输出追加之前 reveal 草稿中的全部输出。纯函数。
func BuildAuthorizationMessage(commitTxID string, vout uint32, unlock, lock []byte, outputs []*wire.TxOut) ([]byte, error) {
	// chainhash 内部即为显示形式的逆序
	hash, err := chainhash.NewHashFromStr(commitTxID)
	if err != nil {
		return nil, fmt.Errorf("commit txid %q: %w", commitTxID, err)
	}
	if len(commitTxID) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("commit txid %q: expected %d hex chars", commitTxID, chainhash.MaxHashStringSize)
	}

	size := chainhash.HashSize + 4 + len(unlock) + len(lock)
	for _, out := range outputs {
		size += 8 + len(out.PkScript)
	}

	msg := make([]byte, 0, size)
	msg = append(msg, hash[:]...)
	msg = binary.LittleEndian.AppendUint32(msg, vout)
	msg = append(msg, unlock...)
	msg = append(msg, lock...)
	for _, out := range outputs {
		msg = binary.LittleEndian.AppendUint64(msg, uint64(out.Value))
		msg = append(msg, out.PkScript...)
	}
	return msg, nil
}

// ErrAuthKeyMismatch 私钥推导出的公钥与注入 payload 的 auth 公钥不一致
var ErrAuthKeyMismatch = errors.New("auth private key does not match auth public key")

// SignAuthorizationMessage 对消息的 SHA-256 签名（DER），并用公钥自校验
// 签名前先由私钥推导公钥，确认与 pubKey 一致
func SignAuthorizationMessage(curve secp256k1.Curve, privKey, pubKey, msg []byte) ([]byte, error) {
	derived, err := curve.PublicKey(privKey)
	if err != nil {
		return nil, &SignatureIntegrityError{Err: err}
	}
	parsed, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return nil, &SignatureIntegrityError{Err: fmt.Errorf("auth public key: %w", err)}
	}
	if !bytes.Equal(derived, parsed.SerializeCompressed()) {
		return nil, &SignatureIntegrityError{Err: ErrAuthKeyMismatch}
	}

	hash := sha256.Sum256(msg)

	sig, err := curve.SignDER(privKey, hash[:])
	if err != nil {
		return nil, &SignatureIntegrityError{Err: err}
	}
	if !curve.VerifyDER(pubKey, hash[:], sig) {
		return nil, &SignatureIntegrityError{}
	}
	return sig, nil
}
