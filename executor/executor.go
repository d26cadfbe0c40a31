package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hellodex/swapengine/audit"
	"github.com/hellodex/swapengine/chain"
	"github.com/hellodex/swapengine/logger"
	"github.com/hellodex/swapengine/model"
	"github.com/hellodex/swapengine/oracle"
	"github.com/hellodex/swapengine/retry"
	"github.com/hellodex/swapengine/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Rejection is a guard check that failed. It always carries the configured
// limit and the offending value, never a bare message.
type Rejection struct {
	Check  string
	Limit  string
	Actual string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s check rejected: %s exceeds limit %s", r.Check, r.Actual, r.Limit)
}

var ErrOracleNotConfigured = errors.New("price oracle not configured")

type Config struct {
	MaxSlippageBps    int
	MaxGasPriceGwei   int64
	DailyVolumeCapUSD decimal.Decimal
	DefaultGasLimit   uint64
	DryRun            bool
	RetryPolicy       retry.Policy
	RetryAttempts     int
}

// Executor runs the guarded swap pipeline. Steps are strictly sequential per
// execution: each outcome gates the next, and approve/swap ordering is
// enforced by chain nonce sequencing. Only read-only chain calls retry;
// funds-moving calls never do.
type Executor struct {
	chain  chain.Capability
	oracle oracle.PriceOracle
	sink   audit.Sink
	ledger *VolumeLedger
	cfg    Config
	now    func() time.Time
}

func New(capability chain.Capability, priceOracle oracle.PriceOracle, sink audit.Sink, cfg Config) *Executor {
	if capability == nil {
		capability = chain.Unavailable{}
	}
	if sink == nil {
		sink = audit.Nop{}
	}
	if cfg.MaxSlippageBps <= 0 {
		cfg.MaxSlippageBps = 100
	}
	if cfg.MaxGasPriceGwei <= 0 {
		cfg.MaxGasPriceGwei = 500
	}
	if cfg.DailyVolumeCapUSD.IsZero() {
		cfg.DailyVolumeCapUSD = decimal.NewFromInt(10_000)
	}
	if cfg.DefaultGasLimit == 0 {
		cfg.DefaultGasLimit = chain.DefaultSwapGasLimit
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 3
	}

	return &Executor{
		chain:  capability,
		oracle: priceOracle,
		sink:   sink,
		ledger: NewVolumeLedger(cfg.DailyVolumeCapUSD),
		cfg:    cfg,
		now:    time.Now,
	}
}

// VolumeStatus returns the daily volume ledger snapshot.
func (e *Executor) VolumeStatus() model.VolumeStatus {
	return e.ledger.Status(e.now())
}

// Execute runs one guarded swap attempt and always returns a structured
// result; it never panics or raises past the boundary. Every attempt, on
// every path, is appended to the audit sink.
func (e *Executor) Execute(ctx context.Context, req model.ExecutionRequest) model.ExecutionResult {
	if req.Symbol == "" {
		req.Symbol = "UNKNOWN"
	}

	// No chain client at all is a valid degraded mode, not a failure.
	if !e.chain.Available() {
		return e.report(ctx, e.simulate(req))
	}

	if !e.chain.Connected(ctx) {
		return e.report(ctx, e.errorResult(req, errors.New("chain client not connected")))
	}

	// Exact conversion to smallest units; truncation only, no rounding drift.
	amountInWei := util.ToSmallestUnit(req.AmountIn, req.TokenInDecimals)
	expectedOutWei := util.ToSmallestUnit(req.ExpectedOutput, req.TokenOutDecimals)

	slippageBps := req.SlippageBps
	if slippageBps == 0 {
		slippageBps = e.cfg.MaxSlippageBps
	}
	if slippageBps < 0 || slippageBps > e.cfg.MaxSlippageBps {
		return e.report(ctx, e.errorResult(req, &Rejection{
			Check:  "slippage",
			Limit:  fmt.Sprintf("%dbps", e.cfg.MaxSlippageBps),
			Actual: fmt.Sprintf("%dbps", slippageBps),
		}))
	}

	minOutWei := minOutput(expectedOutWei, slippageBps)
	minOut := util.FromSmallestUnit(minOutWei, req.TokenOutDecimals).String()

	log.Debug().
		Str(logger.CategoryField, logger.CategoryExec).
		Str("expected_out_wei", expectedOutWei.String()).
		Str("min_out_wei", minOutWei.String()).
		Int("slippage_bps", slippageBps).
		Msg("slippage protection computed")

	tokenIn := common.HexToAddress(req.TokenIn)
	tokenOut := common.HexToAddress(req.TokenOut)

	// Nil token address means the chain's native asset.
	var balanceToken *common.Address
	nativeIn := tokenIn == e.chain.WrappedNative()
	if !nativeIn {
		balanceToken = &tokenIn
	}

	balance, err := retry.Do(ctx, "chain_balance", e.cfg.RetryPolicy, e.cfg.RetryAttempts, chainRetryable,
		func() (decimal.Decimal, error) {
			return e.chain.Balance(ctx, balanceToken)
		})
	if err != nil {
		return e.report(ctx, e.errorResult(req, fmt.Errorf("balance check: %w", err)))
	}
	if balance.LessThan(req.AmountIn) {
		return e.report(ctx, e.errorResult(req, &Rejection{
			Check:  "balance",
			Limit:  balance.String(),
			Actual: req.AmountIn.String(),
		}))
	}

	gasPriceWei, err := retry.Do(ctx, "chain_gas_price", e.cfg.RetryPolicy, e.cfg.RetryAttempts, chainRetryable,
		func() (*big.Int, error) {
			return e.chain.GasPriceWei(ctx)
		})
	if err != nil {
		return e.report(ctx, e.errorResult(req, fmt.Errorf("gas price check: %w", err)))
	}
	gasPriceGwei := util.WeiToGwei(gasPriceWei)
	if gasPriceGwei.GreaterThan(decimal.NewFromInt(e.cfg.MaxGasPriceGwei)) {
		return e.report(ctx, e.errorResult(req, &Rejection{
			Check:  "gas_price",
			Limit:  fmt.Sprintf("%d gwei", e.cfg.MaxGasPriceGwei),
			Actual: gasPriceGwei.String() + " gwei",
		}))
	}

	// Estimation is for observability; failure degrades to the default limit.
	estimate, err := e.chain.EstimateSwapGas(ctx, tokenIn, tokenOut, amountInWei, minOutWei)
	if err != nil {
		log.Warn().
			Str(logger.CategoryField, logger.CategoryExec).
			Err(err).
			Uint64("default_gas_limit", e.cfg.DefaultGasLimit).
			Msg("gas estimation failed, using default")
		estimate = &model.GasEstimate{GasLimit: e.cfg.DefaultGasLimit, GasPriceGwei: gasPriceGwei}
	}

	if e.oracle == nil {
		return e.report(ctx, e.errorResult(req, ErrOracleNotConfigured))
	}
	price, err := e.oracle.PriceUSD(ctx, req.Symbol)
	if err != nil {
		return e.report(ctx, e.errorResult(req, fmt.Errorf("volume check: %w", err)))
	}
	if err := e.ledger.CheckAndAdd(req.Symbol, req.AmountIn.Mul(price), e.now()); err != nil {
		return e.report(ctx, e.errorResult(req, err))
	}

	if e.cfg.DryRun {
		return e.report(ctx, model.ExecutionResult{
			Status:         model.StatusDryRun,
			TokenIn:        req.TokenIn,
			TokenOut:       req.TokenOut,
			AmountIn:       req.AmountIn.String(),
			ExpectedOutput: req.ExpectedOutput.String(),
			MinOutput:      minOut,
			GasEstimate:    estimate,
			Symbol:         req.Symbol,
			Message:        "dry run mode, no transaction sent",
			Timestamp:      e.now().UTC(),
		})
	}

	// Approval is required for non-native input; never retried.
	if !nativeIn {
		if _, err := e.chain.Approve(ctx, tokenIn, e.chain.RouterAddress(), amountInWei); err != nil {
			return e.report(ctx, e.errorResult(req, fmt.Errorf("approval: %w", err)))
		}
	}

	// The swap itself; never retried, and its on-chain status is passed
	// through verbatim.
	outcome, err := e.chain.Swap(ctx, tokenIn, tokenOut, amountInWei, minOutWei)
	if err != nil {
		return e.report(ctx, e.errorResult(req, fmt.Errorf("swap: %w", err)))
	}

	return e.report(ctx, model.ExecutionResult{
		Status:         outcome.Status,
		TxHash:         outcome.TxHash,
		TokenIn:        req.TokenIn,
		TokenOut:       req.TokenOut,
		AmountIn:       req.AmountIn.String(),
		ExpectedOutput: req.ExpectedOutput.String(),
		MinOutput:      minOut,
		GasUsed:        outcome.GasUsed,
		BlockNumber:    outcome.BlockNumber,
		GasEstimate:    estimate,
		Symbol:         req.Symbol,
		Timestamp:      e.now().UTC(),
	})
}

// minOutput computes floor(expected * (10000 - bps) / 10000) in integer
// arithmetic; financial quantities never touch floats here.
func minOutput(expected *big.Int, bps int) *big.Int {
	out := new(big.Int).Mul(expected, big.NewInt(10_000-int64(bps)))
	return out.Quo(out, big.NewInt(10_000))
}

func (e *Executor) simulate(req model.ExecutionRequest) model.ExecutionResult {
	log.Info().
		Str(logger.CategoryField, logger.CategoryExec).
		Str("symbol", req.Symbol).
		Str("amount_in", req.AmountIn.String()).
		Msg("simulation mode, chain client unavailable")

	return model.ExecutionResult{
		Status:         model.StatusSimulated,
		TokenIn:        req.TokenIn,
		TokenOut:       req.TokenOut,
		AmountIn:       req.AmountIn.String(),
		ExpectedOutput: req.ExpectedOutput.String(),
		Symbol:         req.Symbol,
		Message:        "simulation mode, chain client unavailable",
		Timestamp:      e.now().UTC(),
	}
}

func (e *Executor) errorResult(req model.ExecutionRequest, err error) model.ExecutionResult {
	log.Error().
		Str(logger.CategoryField, logger.CategoryExec).
		Str("symbol", req.Symbol).
		Err(err).
		Msg("execution rejected")

	return model.ExecutionResult{
		Status:    model.StatusError,
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		AmountIn:  req.AmountIn.String(),
		Symbol:    req.Symbol,
		Error:     err.Error(),
		Timestamp: e.now().UTC(),
	}
}

// report appends the result to the audit sink. Audit failures are logged and
// never surface to the caller.
func (e *Executor) report(ctx context.Context, res model.ExecutionResult) model.ExecutionResult {
	if err := e.sink.Append(ctx, res); err != nil {
		log.Error().
			Str(logger.CategoryField, logger.CategoryAudit).
			Err(err).
			Str("status", res.Status).
			Msg("audit append failed")
	}
	return res
}

// chainRetryable classifies read-only chain call errors. Config problems
// never heal on retry; transient RPC errors do.
func chainRetryable(err error) bool {
	return !errors.Is(err, chain.ErrNoAccount) && !errors.Is(err, chain.ErrUnavailable)
}
