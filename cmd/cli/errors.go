package main

import (
	"context"
	"errors"

	"github.com/golshanaramesh/atomicals-js/client/core/builder"
	"github.com/golshanaramesh/atomicals-js/client/core/contract"
	"github.com/golshanaramesh/atomicals-js/client/core/wallet"
)

// 退出码
const (
	exitGeneric   = 1
	exitInput     = 2
	exitLookup    = 3
	exitConflict  = 4
	exitSignature = 5
	exitNode      = 6
	exitFunds     = 7
	exitCancelled = 130
)

// classifyError 将错误映射为输出中的错误码与进程退出码
func classifyError(err error) (string, int) {
	var (
		formatErr *contract.FormatError
		notFound  *contract.NotFoundError
		ambiguous *contract.AmbiguousNameError
		duplicate *contract.DuplicateNameError
		missing   *contract.MissingProtocolError
		integrity *contract.SignatureIntegrityError
		fatal     *contract.FatalLookupError
	)

	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled", exitCancelled
	case errors.As(err, &formatErr):
		return "format_error", exitInput
	case errors.As(err, &notFound):
		return "not_found", exitLookup
	case errors.As(err, &ambiguous):
		return "ambiguous_name", exitLookup
	case errors.As(err, &duplicate):
		return "duplicate_name", exitConflict
	case errors.As(err, &missing):
		return "missing_protocol", exitConflict
	case errors.As(err, &integrity):
		return "signature_integrity", exitSignature
	case errors.As(err, &fatal):
		return "lookup_failed", exitNode
	case errors.Is(err, builder.ErrInsufficientBalance), errors.Is(err, builder.ErrNoUTXOs):
		return "insufficient_funds", exitFunds
	case errors.Is(err, builder.ErrRevealUnderfunded):
		return "reveal_underfunded", exitFunds
	case errors.Is(err, builder.ErrBitworkExhausted):
		return "bitwork_exhausted", exitGeneric
	case errors.Is(err, wallet.ErrUnknownAlias), errors.Is(err, wallet.ErrInvalidMnemonic):
		return "wallet_error", exitInput
	default:
		return "error", exitGeneric
	}
}

// errorDetails 附加到 JSON 错误输出中的结构化信息
func errorDetails(err error) interface{} {
	var ambiguous *contract.AmbiguousNameError
	if errors.As(err, &ambiguous) {
		return map[string]interface{}{
			"kind":       ambiguous.Kind,
			"name":       ambiguous.Name,
			"candidates": ambiguous.Candidates,
		}
	}
	var notFound *contract.NotFoundError
	if errors.As(err, &notFound) {
		return map[string]interface{}{"kind": notFound.Kind, "name": notFound.Name}
	}
	return nil
}
