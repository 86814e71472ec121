package contract

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
	"github.com/golshanaramesh/atomicals-js/client/core/transport"
	"github.com/golshanaramesh/atomicals-js/client/core/wallet"
	"github.com/golshanaramesh/atomicals-js/internal/core/infrastructure/crypto/secp256k1"
	corelog "github.com/golshanaramesh/atomicals-js/internal/core/infrastructure/log"
)

var testNet = &chaincfg.RegressionNetParams

const (
	testPhrase     = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testCommitTxID = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	contractID     = "1111111111111111111111111111111111111111111111111111111111111111i0"
	protocolID     = "2222222222222222222222222222222222222222222222222222222222222222i0"
)

// lookupResponse 名称查询的预设响应
type lookupResponse struct {
	result *transport.LookupResult
	err    error
}

// fakeLookup 实现 LookupClient
type fakeLookup struct {
	mu        sync.Mutex
	contracts map[string]lookupResponse
	protocols map[string]lookupResponse
	atomicals map[string]*transport.AtomicalRecord
	calls     []string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		contracts: map[string]lookupResponse{},
		protocols: map[string]lookupResponse{},
		atomicals: map[string]*transport.AtomicalRecord{},
	}
}

func notFound() lookupResponse {
	return lookupResponse{err: &transport.RPCError{Code: transport.NotFoundCode, Message: "not found"}}
}

func found(rec *transport.AtomicalRecord) lookupResponse {
	return lookupResponse{result: &transport.LookupResult{Result: rec}}
}

func pending(ids ...string) lookupResponse {
	cands := make([]transport.Candidate, len(ids))
	for i, id := range ids {
		cands[i] = transport.Candidate{AtomicalID: id}
	}
	return lookupResponse{result: &transport.LookupResult{Candidates: cands}}
}

func (f *fakeLookup) respond(table map[string]lookupResponse, name string) (*transport.LookupResult, error) {
	resp, ok := table[name]
	if !ok {
		return nil, notFound().err
	}
	return resp.result, resp.err
}

func (f *fakeLookup) GetByContract(_ context.Context, name string) (*transport.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "contract:"+name)
	return f.respond(f.contracts, name)
}

func (f *fakeLookup) GetByProtocol(_ context.Context, name string) (*transport.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "protocol:"+name)
	return f.respond(f.protocols, name)
}

func (f *fakeLookup) GetAtomical(_ context.Context, id string) (*transport.AtomicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get:"+id)
	rec, ok := f.atomicals[id]
	if !ok {
		return nil, &transport.RPCError{Code: transport.NotFoundCode, Message: "not found"}
	}
	return rec, nil
}

// addContract 注册合约及其完整记录
func (f *fakeLookup) addContract(name, protocol string) {
	rec := &transport.AtomicalRecord{AtomicalID: contractID, Contract: name, InstanceOfProtocol: protocol}
	f.contracts[name] = found(&transport.AtomicalRecord{AtomicalID: contractID})
	f.atomicals[contractID] = rec
}

// addProtocol 注册协议，锁定脚本写入 mint_data.fields.code
func (f *fakeLookup) addProtocol(t *testing.T, name, codeHex string) {
	t.Helper()
	code, err := json.Marshal(map[string]string{"$b": codeHex})
	require.NoError(t, err)
	rec := &transport.AtomicalRecord{
		AtomicalID: protocolID,
		Protocol:   name,
		MintData:   &transport.MintData{Fields: map[string]json.RawMessage{"code": code}},
	}
	f.protocols[name] = found(&transport.AtomicalRecord{AtomicalID: protocolID})
	f.atomicals[protocolID] = rec
}

// fakeBuilder 实现 TxBuilder，Start 时以预设的草稿调用 hook
type fakeBuilder struct {
	opts         builder.Options
	bitworkc     string
	bitworkr     string
	data         map[string]any
	requestName  string
	protocolName string
	deployScript []byte
	outputs      []builder.Output
	hook         builder.PreFinalizationHook

	draftOutputs []*wire.TxOut
	revealTx     *wire.MsgTx
	commit       builder.CommitReference
	started      int
}

func (b *fakeBuilder) SetBitworkCommit(s string) error { b.bitworkc = s; return nil }
func (b *fakeBuilder) SetBitworkReveal(s string) error { b.bitworkr = s; return nil }
func (b *fakeBuilder) SetData(d map[string]any) error  { b.data = d; return nil }
func (b *fakeBuilder) SetRequestContract(name, protocol string) {
	b.requestName, b.protocolName = name, protocol
}
func (b *fakeBuilder) SetContractDeployScript(s []byte) { b.deployScript = s }
func (b *fakeBuilder) AddOutput(out builder.Output)      { b.outputs = append(b.outputs, out) }

func (b *fakeBuilder) SetPreRevealHook(h builder.PreFinalizationHook) error {
	if b.hook != nil {
		return builder.ErrHookAlreadySet
	}
	b.hook = h
	return nil
}

func (b *fakeBuilder) Start(ctx context.Context, _ string) (*builder.Result, error) {
	b.started++
	hash, err := chainhash.NewHashFromStr(testCommitTxID)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, b.commit.Vout), nil, nil))
	for _, out := range b.draftOutputs {
		tx.AddTxOut(wire.NewTxOut(out.Value, out.PkScript))
	}
	b.revealTx = tx
	b.commit.TxID = testCommitTxID

	if b.hook != nil {
		if err := b.hook.Apply(ctx, b.commit, builder.NewRevealDraft(tx)); err != nil {
			return nil, &builder.HookError{Err: err}
		}
	}
	return &builder.Result{
		CommitTxID: testCommitTxID,
		RevealTxID: tx.TxHash().String(),
		AtomicalID: testCommitTxID + "i0",
	}, nil
}

// builderRecorder 记录工厂创建的构建器
type builderRecorder struct {
	draftOutputs []*wire.TxOut
	vout         uint32
	built        []*fakeBuilder
}

func (r *builderRecorder) factory() BuilderFactory {
	return func(opts builder.Options) TxBuilder {
		b := &fakeBuilder{
			opts:         opts,
			draftOutputs: r.draftOutputs,
			commit:       builder.CommitReference{Vout: r.vout, Value: 5000},
		}
		r.built = append(r.built, b)
		return b
	}
}

type wallets struct {
	auth    *wallet.Record
	funding *wallet.Record
}

func newWallets(t *testing.T) wallets {
	t.Helper()
	auth, err := wallet.DeriveRecord(testPhrase, "", wallet.DefaultPrimaryPath, testNet)
	require.NoError(t, err)
	funding, err := wallet.DeriveRecord(testPhrase, "", wallet.DefaultFundingPath, testNet)
	require.NoError(t, err)
	return wallets{auth: auth, funding: funding}
}

func newTestCurve(t *testing.T) secp256k1.Curve {
	t.Helper()
	curve, err := secp256k1.New(secp256k1.DefaultBackend)
	require.NoError(t, err)
	return curve
}

func newTestResolver(lookup *fakeLookup) *Resolver {
	return NewResolver(lookup, FetchGet, corelog.NewNop())
}

// brokenCurve 签名正常但验证总是失败
type brokenCurve struct {
	secp256k1.Curve
}

func (brokenCurve) VerifyDER(_, _, _ []byte) bool { return false }
