package builder

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/fxamacker/cbor/v2"
)

// EnvelopeMarker envelope 协议标识
var EnvelopeMarker = []byte("atom")

// payloadChunkSize 单次脚本推送的最大字节数
const payloadChunkSize = txscript.MaxScriptElementSize

var (
	payloadEncMode = mustEncMode()
	payloadDecMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// EncodePayload 以确定性 CBOR 编码 payload
func EncodePayload(payload map[string]any) ([]byte, error) {
	data, err := payloadEncMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// DecodePayload 解码 CBOR payload
func DecodePayload(data []byte) (map[string]any, error) {
	var payload map[string]any
	if err := payloadDecMode.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

// BuildEnvelopeScript 构建 reveal 叶子脚本：
//
//	<xonly> OP_CHECKSIG OP_0 OP_IF "atom" <op> <chunk>... OP_ENDIF
func BuildEnvelopeScript(xonlyPubKey []byte, opType string, payload []byte) ([]byte, error) {
	if len(xonlyPubKey) != schnorr.PubKeyBytesLen {
		return nil, fmt.Errorf("invalid x-only public key length %d", len(xonlyPubKey))
	}
	if opType == "" {
		return nil, errors.New("empty op type")
	}

	b := txscript.NewScriptBuilder(txscript.WithScriptAllocSize(len(payload) + 128))
	b.AddData(xonlyPubKey).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData(EnvelopeMarker).
		AddData([]byte(opType))
	for start := 0; start < len(payload); start += payloadChunkSize {
		end := min(start+payloadChunkSize, len(payload))
		b.AddData(payload[start:end])
	}
	b.AddOp(txscript.OP_ENDIF)

	script, err := b.Script()
	if err != nil {
		return nil, fmt.Errorf("build envelope: %w", err)
	}
	return script, nil
}

// ParseEnvelopeScript 解析 envelope 叶子脚本，返回操作类型与拼接后的 payload
func ParseEnvelopeScript(script []byte) (string, []byte, error) {
	tok := txscript.MakeScriptTokenizer(0, script)

	expect := func(op byte) error {
		if !tok.Next() || tok.Opcode() != op {
			return fmt.Errorf("unexpected envelope opcode at offset %d", tok.ByteIndex())
		}
		return nil
	}

	if !tok.Next() || len(tok.Data()) != schnorr.PubKeyBytesLen {
		return "", nil, errors.New("envelope missing x-only public key")
	}
	for _, op := range []byte{txscript.OP_CHECKSIG, txscript.OP_FALSE, txscript.OP_IF} {
		if err := expect(op); err != nil {
			return "", nil, err
		}
	}
	if !tok.Next() || !bytes.Equal(tok.Data(), EnvelopeMarker) {
		return "", nil, errors.New("envelope marker not found")
	}
	if !tok.Next() || len(tok.Data()) == 0 {
		return "", nil, errors.New("envelope missing op type")
	}
	opType := string(tok.Data())

	var payload []byte
	for tok.Next() {
		if tok.Opcode() == txscript.OP_ENDIF {
			if tok.Next() {
				return "", nil, errors.New("trailing data after envelope")
			}
			return opType, payload, tok.Err()
		}
		payload = append(payload, pushedBytes(tok.Opcode(), tok.Data())...)
	}
	if err := tok.Err(); err != nil {
		return "", nil, err
	}
	return "", nil, errors.New("envelope not terminated")
}

// pushedBytes 还原推送的数据，单字节数据可能被编码为小整数操作码
func pushedBytes(op byte, data []byte) []byte {
	switch {
	case op == txscript.OP_0:
		return []byte{0}
	case op == txscript.OP_1NEGATE:
		return []byte{0x81}
	case op >= txscript.OP_1 && op <= txscript.OP_16:
		return []byte{op - txscript.OP_1 + 1}
	}
	return data
}

// commitSpend commit 输出及其脚本路径花费所需的数据
type commitSpend struct {
	leaf         txscript.TapLeaf
	script       []byte
	controlBlock []byte
	pkScript     []byte
}

// newCommitSpend 以 internalKey 为内部公钥、envelope 为唯一叶子构造 taproot 输出
func newCommitSpend(internalKey *btcec.PublicKey, envelope []byte) (*commitSpend, error) {
	leaf := txscript.NewBaseTapLeaf(envelope)
	tree := txscript.AssembleTaprootScriptTree(leaf)
	root := tree.RootNode.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(internalKey, root[:])
	pkScript, err := txscript.PayToTaprootScript(outputKey)
	if err != nil {
		return nil, fmt.Errorf("commit script: %w", err)
	}

	ctrl := tree.LeafMerkleProofs[0].ToControlBlock(internalKey)
	ctrlBytes, err := ctrl.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("control block: %w", err)
	}

	return &commitSpend{
		leaf:         leaf,
		script:       envelope,
		controlBlock: ctrlBytes,
		pkScript:     pkScript,
	}, nil
}
