package main

import (
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golshanaramesh/atomicals-js/client/core/config"
	"github.com/golshanaramesh/atomicals-js/client/core/contract"
	"github.com/golshanaramesh/atomicals-js/client/core/transport"
)

func withTestApp(t *testing.T) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SatsByte = 7
	cfg.SatsOutput = 1500
	prev := app
	app = &appContext{cfg: cfg}
	t.Cleanup(func() { app = prev })
}

func TestRequestOptionsDefaultsFromConfig(t *testing.T) {
	withTestApp(t)

	var flags operationFlags
	cmd := &cobra.Command{Use: "call"}
	flags.register(cmd, true)
	require.NoError(t, cmd.Flags().Parse([]string{"--bitworkc", "ab", "--dry-run"}))

	opts := flags.requestOptions(cmd)
	assert.Equal(t, int64(7), opts.SatsByte)
	assert.Equal(t, int64(1500), opts.SatsOutput)
	assert.Equal(t, "ab", opts.BitworkC)
	assert.True(t, opts.DryRun)
	assert.False(t, opts.RBF)
	assert.Equal(t, "primary", flags.auth)
	assert.Equal(t, "funding", flags.funding)
	assert.Equal(t, "greedy", opts.UTXOStrategy)
}

func TestRequestOptionsFlagsOverrideConfig(t *testing.T) {
	withTestApp(t)

	var flags operationFlags
	cmd := &cobra.Command{Use: "deploy"}
	flags.register(cmd, false)
	require.NoError(t, cmd.Flags().Parse([]string{"--satsbyte", "25", "--satsoutput", "600", "--rbf", "--utxo-strategy", "first-fit"}))

	opts := flags.requestOptions(cmd)
	assert.Equal(t, int64(25), opts.SatsByte)
	assert.Equal(t, int64(600), opts.SatsOutput)
	assert.True(t, opts.RBF)
	assert.Equal(t, "first-fit", opts.UTXOStrategy)
	assert.Nil(t, cmd.Flags().Lookup("auth"))
}

func TestNewResolutionView(t *testing.T) {
	pending := &contract.Resolution{
		Kind:       contract.KindContract,
		Name:       "dmint",
		Outcome:    contract.Pending,
		Candidates: []transport.Candidate{{AtomicalID: "aai0"}},
	}
	view := newResolutionView(pending)
	assert.Equal(t, "pending", view.Outcome)
	assert.Equal(t, []string{"aai0"}, view.Candidates)
	assert.Empty(t, view.AtomicalID)

	proto := &contract.Resolution{
		Kind:    contract.KindProtocol,
		Name:    "ft",
		Outcome: contract.Found,
		Record: &transport.AtomicalRecord{
			AtomicalID: "ppi0",
			MintData: &transport.MintData{Fields: map[string]json.RawMessage{
				"code": json.RawMessage(`{"$b":"51"}`),
			}},
		},
	}
	view = newResolutionView(proto)
	assert.Equal(t, "found", view.Outcome)
	assert.Equal(t, "ppi0", view.AtomicalID)
	assert.Equal(t, "51", view.LockScript)
}
