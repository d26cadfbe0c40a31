package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/duke-git/lancet/v2/netutil"
	"github.com/hellodex/swapengine/retry"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// HTTP reads prices from a coingecko-style simple-price endpoint:
// GET {base}/simple/price?ids=<id>&vs_currencies=usd → {"<id>":{"usd":1.23}}.
type HTTP struct {
	baseURL     string
	ids         map[string]string // symbol → endpoint id; default lowercased symbol
	policy      retry.Policy
	maxAttempts int
	timeout     time.Duration
}

func NewHTTP(baseURL string, ids map[string]string, policy retry.Policy, maxAttempts int) *HTTP {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &HTTP{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		ids:         ids,
		policy:      policy,
		maxAttempts: maxAttempts,
		timeout:     10 * time.Second,
	}
}

func (o *HTTP) PriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	id := strings.ToLower(symbol)
	if mapped, ok := o.ids[symbol]; ok {
		id = mapped
	}

	op := func() (decimal.Decimal, error) {
		return o.fetch(id)
	}

	// Everything transient retries; an id the endpoint doesn't know never will.
	retryable := func(err error) bool {
		return !errors.Is(err, ErrUnknownSymbol)
	}

	price, err := retry.Do(ctx, "price_"+symbol, o.policy, o.maxAttempts, retryable, op)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price lookup for %s: %w", symbol, err)
	}
	return price, nil
}

func (o *HTTP) fetch(id string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", "usd")

	req := &netutil.HttpRequest{
		RawURL:      o.baseURL + "/simple/price",
		Method:      http.MethodGet,
		QueryParams: params,
	}

	client := netutil.NewHttpClient()
	client.Timeout = o.timeout
	resp, err := client.SendRequest(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price endpoint status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}

	v := gjson.GetBytes(body, id+".usd")
	if !v.Exists() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownSymbol, id)
	}

	// Parse the raw JSON number; going through a float64 would smear the
	// price before it enters decimal arithmetic.
	price, err := decimal.NewFromString(v.Raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparsable price %q for %s", v.Raw, id)
	}
	return price, nil
}
