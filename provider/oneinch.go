package provider

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/hellodex/swapengine/logger"
	"github.com/hellodex/swapengine/model"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const DefaultOneInchBaseURL = "https://api.1inch.dev"

// oneInchChains maps supported chain IDs to their network names.
var oneInchChains = map[int64]string{
	1:     "ethereum",
	56:    "bsc",
	137:   "polygon",
	8453:  "base",
	42161: "arbitrum",
}

// OneInch queries the 1inch aggregation API, which routes across 50+ DEX
// protocols. An API key is optional; quotes work on the free tier.
type OneInch struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewOneInch(baseURL, apiKey string, timeout time.Duration) *OneInch {
	if baseURL == "" {
		baseURL = DefaultOneInchBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OneInch{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *OneInch) Name() string { return "1inch" }

func (p *OneInch) Supports(chainID int64) bool {
	_, ok := oneInchChains[chainID]
	return ok
}

func (p *OneInch) GetQuote(ctx context.Context, req model.SwapRequest) (*model.Quote, error) {
	if !p.Supports(req.ChainID) {
		return nil, &Failure{Provider: p.Name(), Cause: CauseUnsupportedChain}
	}

	rawURL := fmt.Sprintf("%s/swap/v5.2/%d/quote", p.baseURL, req.ChainID)
	params := url.Values{}
	params.Set("src", req.TokenIn)
	params.Set("dst", req.TokenOut)
	params.Set("amount", req.AmountIn.String())
	params.Set("includeGas", "true")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Failure{Provider: p.Name(), Cause: CauseTransport, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &Failure{Provider: p.Name(), Cause: CauseTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Provider: p.Name(), Cause: CauseTransport, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		log.Debug().
			Str(logger.CategoryField, logger.CategoryQuote).
			Str("provider", p.Name()).
			Int("status", resp.StatusCode).
			Msg("upstream returned non-200")
		return nil, &Failure{Provider: p.Name(), Cause: CauseUpstream, StatusCode: resp.StatusCode}
	}

	amountOut := gjson.GetBytes(body, "toAmount")
	if !amountOut.Exists() {
		// Older API revisions use dstAmount.
		amountOut = gjson.GetBytes(body, "dstAmount")
	}
	if _, ok := new(big.Int).SetString(amountOut.String(), 10); !ok {
		return nil, &Failure{Provider: p.Name(), Cause: CauseMalformed,
			Err: fmt.Errorf("missing or non-integer output amount %q", amountOut.String())}
	}

	// Optional fields resolve to documented defaults, never fail the quote.
	var route []string
	for _, hop := range gjson.GetBytes(body, "protocols.0").Array() {
		if name := hop.Get("name"); name.Exists() {
			route = append(route, name.String())
		}
	}

	return &model.Quote{
		Source:      p.Name(),
		TokenIn:     req.TokenIn,
		TokenOut:    req.TokenOut,
		AmountIn:    req.AmountIn.String(),
		AmountOut:   amountOut.String(),
		GasEstimate: gjson.GetBytes(body, "gas").Int(),
		PriceImpact: gjson.GetBytes(body, "priceImpact").Float(),
		Route:       route,
	}, nil
}
