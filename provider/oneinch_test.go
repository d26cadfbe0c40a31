package provider

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hellodex/swapengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneInchRequest() model.SwapRequest {
	return model.SwapRequest{
		TokenIn:  "0x1111111111111111111111111111111111111111",
		TokenOut: "0x2222222222222222222222222222222222222222",
		AmountIn: big.NewInt(1_000_000_000_000_000_000),
		ChainID:  1,
		Slippage: 0.5,
	}
}

func TestOneInchQuote(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "0x1111111111111111111111111111111111111111", r.URL.Query().Get("src"))
		assert.Equal(t, "1000000000000000000", r.URL.Query().Get("amount"))
		w.Write([]byte(`{
			"toAmount": "2650123456",
			"gas": 210000,
			"protocols": [[{"name": "UNISWAP_V3"}, {"name": "CURVE"}]]
		}`))
	}))
	defer srv.Close()

	p := NewOneInch(srv.URL, "test-key", time.Second)
	q, err := p.GetQuote(context.Background(), oneInchRequest())

	require.NoError(t, err)
	assert.Equal(t, "/swap/v5.2/1/quote", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "1inch", q.Source)
	assert.Equal(t, "2650123456", q.AmountOut)
	assert.Equal(t, int64(210000), q.GasEstimate)
	assert.Equal(t, []string{"UNISWAP_V3", "CURVE"}, q.Route)
}

func TestOneInchDstAmountFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dstAmount": "777"}`))
	}))
	defer srv.Close()

	p := NewOneInch(srv.URL, "", time.Second)
	q, err := p.GetQuote(context.Background(), oneInchRequest())

	require.NoError(t, err)
	assert.Equal(t, "777", q.AmountOut)
	assert.Equal(t, int64(0), q.GasEstimate)
	assert.Empty(t, q.Route)
}

func TestOneInchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewOneInch(srv.URL, "", time.Second)
	_, err := p.GetQuote(context.Background(), oneInchRequest())

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, CauseUpstream, f.Cause)
	assert.Equal(t, http.StatusBadGateway, f.StatusCode)
	assert.True(t, f.Retryable())
}

func TestOneInchMalformedAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"toAmount": "not-a-number"}`))
	}))
	defer srv.Close()

	p := NewOneInch(srv.URL, "", time.Second)
	_, err := p.GetQuote(context.Background(), oneInchRequest())

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, CauseMalformed, f.Cause)
	assert.False(t, f.Retryable())
}

func TestOneInchUnsupportedChainNoNetworkCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := NewOneInch(srv.URL, "", time.Second)
	req := oneInchRequest()
	req.ChainID = 999

	_, err := p.GetQuote(context.Background(), req)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, CauseUnsupportedChain, f.Cause)
	assert.Equal(t, int32(0), hits.Load())
	assert.False(t, p.Supports(999))
	assert.True(t, p.Supports(1))
}
