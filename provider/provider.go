package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hellodex/swapengine/model"
)

// Adapter is a single quoting source. Implementations must validate the chain
// locally before touching the network and must return either a fully valid
// Quote or a *Failure, never a partial quote.
type Adapter interface {
	Name() string
	Supports(chainID int64) bool
	GetQuote(ctx context.Context, req model.SwapRequest) (*model.Quote, error)
}

// Cause classifies why a provider could not produce a quote. All causes are
// non-fatal to aggregation; they only remove the provider from consideration
// for the current request.
type Cause int

const (
	CauseUnsupportedChain Cause = iota
	CauseUpstream
	CauseMalformed
	CauseTransport
)

func (c Cause) String() string {
	switch c {
	case CauseUnsupportedChain:
		return "unsupported_chain"
	case CauseUpstream:
		return "upstream_error"
	case CauseMalformed:
		return "malformed_response"
	case CauseTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Failure is a tagged provider error.
type Failure struct {
	Provider   string
	Cause      Cause
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", f.Provider, f.Cause, f.StatusCode)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Provider, f.Cause, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Provider, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Err }

// Retryable reports whether the failure is transient. Unsupported chains and
// malformed payloads never heal on retry; client errors from the upstream
// (4xx other than 429) don't either.
func (f *Failure) Retryable() bool {
	switch f.Cause {
	case CauseTransport:
		return true
	case CauseUpstream:
		return f.StatusCode >= http.StatusInternalServerError || f.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// IsRetryable is the retry-classification predicate for provider calls.
func IsRetryable(err error) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Retryable()
	}
	return false
}
