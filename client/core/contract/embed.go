package contract

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
)

// SignatureTag 签名输出的标记
var SignatureTag = []byte("sig")

// EncodeSignatureScript 构建签名输出脚本：OP_RETURN <"sig"> <sig>
func EncodeSignatureScript(sig []byte) ([]byte, error) {
	if len(sig) == 0 {
		return nil, errors.New("empty signature")
	}
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(SignatureTag).
		AddData(sig).
		Script()
	if err != nil {
		return nil, fmt.Errorf("signature script: %w", err)
	}
	return script, nil
}

// EmbedSignature 向 reveal 草稿追加零值签名输出
func EmbedSignature(draft *builder.RevealDraft, sig []byte) error {
	script, err := EncodeSignatureScript(sig)
	if err != nil {
		return err
	}
	return draft.AddOutput(wire.NewTxOut(0, script))
}
