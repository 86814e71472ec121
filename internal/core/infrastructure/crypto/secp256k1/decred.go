package secp256k1

import (
	dcrsecp "github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// decredCurve 基于 dcrd/dcrec/secp256k1 的实现
type decredCurve struct{}

// NewDecredCurve 创建 decred 后端
func NewDecredCurve() Curve {
	return decredCurve{}
}

func (decredCurve) Name() string {
	return BackendDecred
}

func (decredCurve) PublicKey(privKey []byte) ([]byte, error) {
	if len(privKey) != PrivateKeyLength {
		return nil, &ErrInvalidKeyLength{Expected: PrivateKeyLength, Got: len(privKey)}
	}
	return dcrsecp.PrivKeyFromBytes(privKey).PubKey().SerializeCompressed(), nil
}

func (decredCurve) SignDER(privKey, hash []byte) ([]byte, error) {
	if err := checkSignInputs(privKey, hash); err != nil {
		return nil, err
	}
	priv := dcrsecp.PrivKeyFromBytes(privKey)
	return dcrecdsa.Sign(priv, hash).Serialize(), nil
}

func (decredCurve) VerifyDER(pubKey, hash, sig []byte) bool {
	if len(hash) != HashLength {
		return false
	}
	pub, err := dcrsecp.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	parsed, err := dcrecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(hash, pub)
}
