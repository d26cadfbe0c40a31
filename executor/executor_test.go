package executor

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hellodex/swapengine/chain"
	"github.com/hellodex/swapengine/model"
	"github.com/hellodex/swapengine/oracle"
	"github.com/hellodex/swapengine/retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wethAddr = "0x1111111111111111111111111111111111111111"
	usdcAddr = "0x2222222222222222222222222222222222222222"
	wrapped  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeChain struct {
	mu sync.Mutex

	connected       bool
	balance         decimal.Decimal
	balanceFailures int
	balanceCalls    int
	lastBalToken    *common.Address

	gasPriceWei *big.Int

	estimate    *model.GasEstimate
	estimateErr error

	approveCalls int
	approveErr   error

	swapCalls   int
	swapOutcome *model.TxOutcome
	swapErr     error
	lastMinOut  *big.Int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		connected:   true,
		balance:     decimal.NewFromInt(10),
		gasPriceWei: big.NewInt(20_000_000_000), // 20 gwei
		estimate:    &model.GasEstimate{GasLimit: 210_000, GasPriceGwei: decimal.NewFromInt(20)},
		swapOutcome: &model.TxOutcome{TxHash: "0xabc", Status: model.StatusSuccess, GasUsed: 180_000, BlockNumber: 42},
	}
}

func (f *fakeChain) Available() bool                { return true }
func (f *fakeChain) Connected(context.Context) bool { return f.connected }
func (f *fakeChain) RouterAddress() common.Address {
	return common.HexToAddress("0x9999999999999999999999999999999999999999")
}
func (f *fakeChain) WrappedNative() common.Address { return wrapped }

func (f *fakeChain) Balance(_ context.Context, token *common.Address) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	f.lastBalToken = token
	if f.balanceFailures > 0 {
		f.balanceFailures--
		return decimal.Zero, assert.AnError
	}
	return f.balance, nil
}

func (f *fakeChain) GasPriceWei(context.Context) (*big.Int, error) {
	return f.gasPriceWei, nil
}

func (f *fakeChain) EstimateSwapGas(context.Context, common.Address, common.Address, *big.Int, *big.Int) (*model.GasEstimate, error) {
	return f.estimate, f.estimateErr
}

func (f *fakeChain) Approve(context.Context, common.Address, common.Address, *big.Int) (*model.TxOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approveCalls++
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	return &model.TxOutcome{TxHash: "0xdef", Status: model.StatusSuccess}, nil
}

func (f *fakeChain) Swap(_ context.Context, _, _ common.Address, _, minOutWei *big.Int) (*model.TxOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swapCalls++
	f.lastMinOut = minOutWei
	return f.swapOutcome, f.swapErr
}

type captureSink struct {
	mu      sync.Mutex
	records []model.ExecutionResult
}

func (s *captureSink) Append(_ context.Context, rec model.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *captureSink) last(t *testing.T) model.ExecutionResult {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.records)
	return s.records[len(s.records)-1]
}

type failingSink struct{}

func (failingSink) Append(context.Context, model.ExecutionResult) error { return assert.AnError }

func testOracle(t *testing.T) oracle.PriceOracle {
	t.Helper()
	o, err := oracle.NewStatic(map[string]string{"WETH": "2000"})
	require.NoError(t, err)
	return o
}

func testConfig() Config {
	return Config{
		MaxSlippageBps:    100,
		MaxGasPriceGwei:   500,
		DailyVolumeCapUSD: decimal.NewFromInt(1_000_000),
		RetryPolicy:       retry.Policy{Base: time.Millisecond, Max: time.Millisecond},
		RetryAttempts:     3,
	}
}

func baseRequest() model.ExecutionRequest {
	return model.ExecutionRequest{
		TokenIn:          wethAddr,
		TokenOut:         usdcAddr,
		AmountIn:         decimal.RequireFromString("1.0"),
		ExpectedOutput:   decimal.RequireFromString("1.5"),
		SlippageBps:      100,
		TokenInDecimals:  18,
		TokenOutDecimals: 18,
		Symbol:           "WETH",
	}
}

func TestExecuteSimulatedWithoutChainClient(t *testing.T) {
	sink := &captureSink{}
	e := New(nil, testOracle(t), sink, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusSimulated, res.Status)
	assert.Empty(t, res.TxHash)
	assert.Len(t, sink.records, 1)
}

func TestExecuteSimulatedWithUnavailable(t *testing.T) {
	e := New(chain.Unavailable{}, testOracle(t), &captureSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())
	assert.Equal(t, model.StatusSimulated, res.Status)
}

func TestExecuteNotConnected(t *testing.T) {
	fc := newFakeChain()
	fc.connected = false
	sink := &captureSink{}
	e := New(fc, testOracle(t), sink, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "not connected")
	assert.Equal(t, 0, fc.balanceCalls)
}

func TestExecuteDryRunComputesMinOutput(t *testing.T) {
	fc := newFakeChain()
	sink := &captureSink{}
	cfg := testConfig()
	cfg.DryRun = true
	e := New(fc, testOracle(t), sink, cfg)

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusDryRun, res.Status)
	// 1.5 expected at 100bps tolerance: floor(1.5 * 0.99) = 1.485.
	assert.Equal(t, "1.485", res.MinOutput)
	assert.Empty(t, res.TxHash)
	assert.Equal(t, 0, fc.approveCalls)
	assert.Equal(t, 0, fc.swapCalls)
	assert.Equal(t, sink.last(t).Status, model.StatusDryRun)
}

func TestExecuteDefaultSlippage(t *testing.T) {
	fc := newFakeChain()
	cfg := testConfig()
	cfg.DryRun = true
	e := New(fc, testOracle(t), &captureSink{}, cfg)

	req := baseRequest()
	req.SlippageBps = 0 // falls back to the configured 100bps maximum

	res := e.Execute(context.Background(), req)
	assert.Equal(t, "1.485", res.MinOutput)
}

func TestExecuteSlippageAboveMaxRejected(t *testing.T) {
	fc := newFakeChain()
	e := New(fc, testOracle(t), &captureSink{}, testConfig())

	req := baseRequest()
	req.SlippageBps = 250

	res := e.Execute(context.Background(), req)

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "slippage")
	// Rejected before any chain interaction.
	assert.Equal(t, 0, fc.balanceCalls)
	assert.Equal(t, 0, fc.swapCalls)
}

func TestExecuteInsufficientBalance(t *testing.T) {
	fc := newFakeChain()
	fc.balance = decimal.RequireFromString("0.5")
	e := New(fc, testOracle(t), &captureSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "balance")
	assert.Equal(t, 0, fc.swapCalls)
}

func TestExecuteBalanceRetriesTransientErrors(t *testing.T) {
	fc := newFakeChain()
	fc.balanceFailures = 2
	cfg := testConfig()
	cfg.DryRun = true
	e := New(fc, testOracle(t), &captureSink{}, cfg)

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusDryRun, res.Status)
	assert.Equal(t, 3, fc.balanceCalls)
}

func TestExecuteGasPriceCeiling(t *testing.T) {
	fc := newFakeChain()
	fc.gasPriceWei = big.NewInt(600_000_000_000) // 600 gwei
	e := New(fc, testOracle(t), &captureSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "gas_price")
	assert.Equal(t, 0, fc.swapCalls)
}

func TestExecuteGasEstimateFallsBackToDefault(t *testing.T) {
	fc := newFakeChain()
	fc.estimate = nil
	fc.estimateErr = assert.AnError
	cfg := testConfig()
	cfg.DryRun = true
	e := New(fc, testOracle(t), &captureSink{}, cfg)

	res := e.Execute(context.Background(), baseRequest())

	require.Equal(t, model.StatusDryRun, res.Status)
	require.NotNil(t, res.GasEstimate)
	assert.Equal(t, uint64(chain.DefaultSwapGasLimit), res.GasEstimate.GasLimit)
}

func TestExecuteOracleRequired(t *testing.T) {
	fc := newFakeChain()
	e := New(fc, nil, &captureSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "oracle")
	assert.Equal(t, 0, fc.swapCalls)
}

func TestExecuteVolumeCapRejects(t *testing.T) {
	fc := newFakeChain()
	cfg := testConfig()
	cfg.DailyVolumeCapUSD = decimal.NewFromInt(1_000) // 1 WETH at $2000 blows through
	e := New(fc, testOracle(t), &captureSink{}, cfg)

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "daily volume limit")
	assert.Equal(t, 0, fc.swapCalls)
}

func TestExecuteVolumeAccumulatesAcrossCalls(t *testing.T) {
	fc := newFakeChain()
	cfg := testConfig()
	cfg.DryRun = true
	cfg.DailyVolumeCapUSD = decimal.NewFromInt(5_000)
	e := New(fc, testOracle(t), &captureSink{}, cfg)

	// $2000 each; the third pushes past $5000.
	assert.Equal(t, model.StatusDryRun, e.Execute(context.Background(), baseRequest()).Status)
	assert.Equal(t, model.StatusDryRun, e.Execute(context.Background(), baseRequest()).Status)
	res := e.Execute(context.Background(), baseRequest())
	assert.Equal(t, model.StatusError, res.Status)

	st := e.VolumeStatus()
	assert.True(t, st.TotalUSD.Equal(decimal.NewFromInt(4_000)))
}

func TestExecuteApprovesThenSwaps(t *testing.T) {
	fc := newFakeChain()
	e := New(fc, testOracle(t), &captureSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusSuccess, res.Status)
	assert.Equal(t, "0xabc", res.TxHash)
	assert.Equal(t, uint64(180_000), res.GasUsed)
	assert.Equal(t, uint64(42), res.BlockNumber)
	assert.Equal(t, 1, fc.approveCalls)
	assert.Equal(t, 1, fc.swapCalls)

	// min output in smallest units: 1.485e18
	want, _ := new(big.Int).SetString("1485000000000000000", 10)
	assert.Equal(t, 0, fc.lastMinOut.Cmp(want))
}

func TestExecuteNativeInputSkipsApproval(t *testing.T) {
	fc := newFakeChain()
	e := New(fc, testOracle(t), &captureSink{}, testConfig())

	req := baseRequest()
	req.TokenIn = wrapped.Hex()

	res := e.Execute(context.Background(), req)

	assert.Equal(t, model.StatusSuccess, res.Status)
	assert.Equal(t, 0, fc.approveCalls)
	assert.Equal(t, 1, fc.swapCalls)
	// Native balance lookup uses a nil token address.
	assert.Nil(t, fc.lastBalToken)
}

func TestExecuteFailedSwapStatusPassesThrough(t *testing.T) {
	fc := newFakeChain()
	fc.swapOutcome = &model.TxOutcome{TxHash: "0xdead", Status: model.StatusFailed, GasUsed: 300_000}
	e := New(fc, testOracle(t), &captureSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Equal(t, "0xdead", res.TxHash)
}

func TestExecuteApprovalFailureAborts(t *testing.T) {
	fc := newFakeChain()
	fc.approveErr = assert.AnError
	e := New(fc, testOracle(t), &captureSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "approval")
	assert.Equal(t, 1, fc.approveCalls)
	assert.Equal(t, 0, fc.swapCalls)
}

func TestExecuteEveryPathIsAudited(t *testing.T) {
	fc := newFakeChain()
	sink := &captureSink{}
	e := New(fc, testOracle(t), sink, testConfig())

	e.Execute(context.Background(), baseRequest()) // success

	req := baseRequest()
	req.SlippageBps = 9999
	e.Execute(context.Background(), req) // rejection

	assert.Len(t, sink.records, 2)
	assert.Equal(t, model.StatusSuccess, sink.records[0].Status)
	assert.Equal(t, model.StatusError, sink.records[1].Status)
}

func TestExecuteAuditFailureDoesNotSurface(t *testing.T) {
	fc := newFakeChain()
	e := New(fc, testOracle(t), failingSink{}, testConfig())

	res := e.Execute(context.Background(), baseRequest())
	assert.Equal(t, model.StatusSuccess, res.Status)
}

func TestExecuteDefaultsUnknownSymbol(t *testing.T) {
	e := New(nil, testOracle(t), &captureSink{}, testConfig())

	req := baseRequest()
	req.Symbol = ""

	res := e.Execute(context.Background(), req)
	assert.Equal(t, "UNKNOWN", res.Symbol)
}

func TestMinOutputTruncates(t *testing.T) {
	// 101 * 9999 / 10000 = 100.9899 floors to 100.
	got := minOutput(big.NewInt(101), 1)
	assert.Equal(t, int64(100), got.Int64())

	// 0 bps keeps the full expected amount.
	assert.Equal(t, int64(101), minOutput(big.NewInt(101), 0).Int64())
}
