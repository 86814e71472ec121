package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
	"github.com/golshanaramesh/atomicals-js/client/core/contract"
	"github.com/golshanaramesh/atomicals-js/client/core/wallet"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"format", &contract.FormatError{Field: "u", Reason: "not hex"}, "format_error", exitInput},
		{"not found", &contract.NotFoundError{Kind: contract.KindContract, Name: "x"}, "not_found", exitLookup},
		{"ambiguous", &contract.AmbiguousNameError{Kind: contract.KindContract, Name: "x"}, "ambiguous_name", exitLookup},
		{"duplicate", &contract.DuplicateNameError{Name: "x"}, "duplicate_name", exitConflict},
		{"missing protocol", &contract.MissingProtocolError{Name: "p"}, "missing_protocol", exitConflict},
		{"integrity", &contract.SignatureIntegrityError{}, "signature_integrity", exitSignature},
		{"fatal lookup", &contract.FatalLookupError{Kind: contract.KindProtocol, Name: "p", Err: errors.New("timeout")}, "lookup_failed", exitNode},
		{"wrapped funds", fmt.Errorf("commit: %w", builder.ErrInsufficientBalance), "insufficient_funds", exitFunds},
		{"no utxos", builder.ErrNoUTXOs, "insufficient_funds", exitFunds},
		{"underfunded", builder.ErrRevealUnderfunded, "reveal_underfunded", exitFunds},
		{"alias", fmt.Errorf("auth: %w", wallet.ErrUnknownAlias), "wallet_error", exitInput},
		{"cancelled", fmt.Errorf("mine: %w", context.Canceled), "cancelled", exitCancelled},
		{"other", errors.New("boom"), "error", exitGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classifyError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.exit, exit)
		})
	}
}

func TestErrorDetails(t *testing.T) {
	details := errorDetails(&contract.AmbiguousNameError{
		Kind:       contract.KindContract,
		Name:       "dmint",
		Candidates: []string{"aai0", "bbi0"},
	})
	m, ok := details.(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, []string{"aai0", "bbi0"}, m["candidates"])
		assert.Equal(t, "dmint", m["name"])
	}

	assert.Nil(t, errorDetails(errors.New("plain")))
}
