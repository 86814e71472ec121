package secp256k1

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// btcecCurve 基于 btcd/btcec 的实现
type btcecCurve struct{}

// NewBtcecCurve 创建 btcec 后端
func NewBtcecCurve() Curve {
	return btcecCurve{}
}

func (btcecCurve) Name() string {
	return BackendBtcec
}

func (btcecCurve) PublicKey(privKey []byte) ([]byte, error) {
	if len(privKey) != PrivateKeyLength {
		return nil, &ErrInvalidKeyLength{Expected: PrivateKeyLength, Got: len(privKey)}
	}
	_, pub := btcec.PrivKeyFromBytes(privKey)
	return pub.SerializeCompressed(), nil
}

func (btcecCurve) SignDER(privKey, hash []byte) ([]byte, error) {
	if err := checkSignInputs(privKey, hash); err != nil {
		return nil, err
	}
	priv, _ := btcec.PrivKeyFromBytes(privKey)
	return ecdsa.Sign(priv, hash).Serialize(), nil
}

func (btcecCurve) VerifyDER(pubKey, hash, sig []byte) bool {
	if len(hash) != HashLength {
		return false
	}
	pub, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(hash, pub)
}
