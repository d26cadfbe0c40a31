package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Execution statuses. The chain's own success/failed outcome is passed
// through verbatim, never reinterpreted.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusDryRun    = "dry_run"
	StatusSimulated = "simulated"
	StatusError     = "error"
)

// ExecutionRequest describes one guarded swap attempt. Amounts are
// human-readable decimals; the executor converts to smallest units using the
// supplied token precisions.
type ExecutionRequest struct {
	TokenIn          string          `json:"token_in"`
	TokenOut         string          `json:"token_out"`
	AmountIn         decimal.Decimal `json:"amount_in"`
	ExpectedOutput   decimal.Decimal `json:"expected_output"`
	SlippageBps      int             `json:"slippage_bps,omitempty"` // 0 = executor default
	TokenInDecimals  int32           `json:"token_in_decimals"`
	TokenOutDecimals int32           `json:"token_out_decimals"`
	Symbol           string          `json:"symbol"`
}

// GasEstimate is the cost breakdown for a pending swap.
type GasEstimate struct {
	GasLimit     uint64          `json:"gas_limit"`
	GasPriceGwei decimal.Decimal `json:"gas_price_gwei"`
	CostWei      *big.Int        `json:"-"`
	CostNative   decimal.Decimal `json:"cost_native"`
}

// TxOutcome is a mined transaction's receipt summary.
type TxOutcome struct {
	TxHash      string `json:"tx_hash"`
	Status      string `json:"status"` // success | failed
	GasUsed     uint64 `json:"gas_used"`
	BlockNumber uint64 `json:"block_number"`
}

// ExecutionResult is the caller-visible outcome of one execution attempt.
// Monetary fields are decimal strings to avoid precision loss across the
// boundary. Immutable once constructed; every result is appended to the
// audit sink.
type ExecutionResult struct {
	Status         string       `json:"status"`
	TxHash         string       `json:"tx_hash,omitempty"`
	TokenIn        string       `json:"token_in"`
	TokenOut       string       `json:"token_out"`
	AmountIn       string       `json:"amount_in"`
	ExpectedOutput string       `json:"expected_output,omitempty"`
	MinOutput      string       `json:"min_output,omitempty"`
	GasUsed        uint64       `json:"gas_used,omitempty"`
	BlockNumber    uint64       `json:"block_number,omitempty"`
	GasEstimate    *GasEstimate `json:"gas_estimate,omitempty"`
	Symbol         string       `json:"symbol,omitempty"`
	Message        string       `json:"message,omitempty"`
	Error          string       `json:"error,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// VolumeStatus is a read-only snapshot of the daily volume ledger.
type VolumeStatus struct {
	Date         string                     `json:"date"`
	Volumes      map[string]decimal.Decimal `json:"volumes"`
	LimitUSD     decimal.Decimal            `json:"limit_usd"`
	TotalUSD     decimal.Decimal            `json:"total_usd"`
	RemainingUSD decimal.Decimal            `json:"remaining_usd"`
}
