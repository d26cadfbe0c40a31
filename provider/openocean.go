package provider

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hellodex/swapengine/model"
	"github.com/tidwall/gjson"
)

const DefaultOpenOceanBaseURL = "https://open-api.openocean.finance"

// openOceanChains maps chain IDs to OpenOcean chain codes.
var openOceanChains = map[int64]string{
	1:     "eth",
	56:    "bsc",
	137:   "polygon",
	8453:  "base",
	42161: "arbitrum",
}

// OpenOcean queries the OpenOcean aggregation API as an independent second
// quoting source.
type OpenOcean struct {
	baseURL string
	client  *http.Client
}

func NewOpenOcean(baseURL string, timeout time.Duration) *OpenOcean {
	if baseURL == "" {
		baseURL = DefaultOpenOceanBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenOcean{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *OpenOcean) Name() string { return "openocean" }

func (p *OpenOcean) Supports(chainID int64) bool {
	_, ok := openOceanChains[chainID]
	return ok
}

func (p *OpenOcean) GetQuote(ctx context.Context, req model.SwapRequest) (*model.Quote, error) {
	chainCode, ok := openOceanChains[req.ChainID]
	if !ok {
		return nil, &Failure{Provider: p.Name(), Cause: CauseUnsupportedChain}
	}

	rawURL := fmt.Sprintf("%s/v3/%s/quote", p.baseURL, chainCode)
	params := url.Values{}
	params.Set("inTokenAddress", req.TokenIn)
	params.Set("outTokenAddress", req.TokenOut)
	params.Set("amount", req.AmountIn.String())
	params.Set("slippage", strconv.FormatFloat(req.Slippage, 'f', -1, 64))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Failure{Provider: p.Name(), Cause: CauseTransport, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")

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
		return nil, &Failure{Provider: p.Name(), Cause: CauseUpstream, StatusCode: resp.StatusCode}
	}

	return p.parseQuote(req, body)
}

func (p *OpenOcean) parseQuote(req model.SwapRequest, body []byte) (*model.Quote, error) {
	if code := gjson.GetBytes(body, "code").Int(); code != 200 {
		return nil, &Failure{Provider: p.Name(), Cause: CauseUpstream, StatusCode: int(code)}
	}

	amountOut := gjson.GetBytes(body, "data.outAmount").String()
	if _, ok := new(big.Int).SetString(amountOut, 10); !ok {
		return nil, &Failure{Provider: p.Name(), Cause: CauseMalformed,
			Err: fmt.Errorf("missing or non-integer output amount %q", amountOut)}
	}

	// price_impact arrives as "0.12%"; absent or unparsable means unknown.
	impact := 0.0
	if s := gjson.GetBytes(body, "data.price_impact").String(); s != "" {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64); err == nil {
			impact = v
		}
	}

	var route []string
	for _, dex := range gjson.GetBytes(body, "data.path.routes.0.subRoutes.0.dexes").Array() {
		if name := dex.Get("dex"); name.Exists() {
			route = append(route, name.String())
		}
	}

	return &model.Quote{
		Source:      p.Name(),
		TokenIn:     req.TokenIn,
		TokenOut:    req.TokenOut,
		AmountIn:    req.AmountIn.String(),
		AmountOut:   amountOut,
		GasEstimate: gjson.GetBytes(body, "data.estimatedGas").Int(),
		PriceImpact: impact,
		Route:       route,
	}, nil
}
