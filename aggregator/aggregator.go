package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hellodex/swapengine/logger"
	"github.com/hellodex/swapengine/model"
	"github.com/hellodex/swapengine/provider"
	"github.com/hellodex/swapengine/retry"
	"github.com/hellodex/swapengine/store"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ErrNoQuote means no provider produced a usable quote for this request.
// Temporarily-unavailable semantics: the caller may retry later.
var ErrNoQuote = errors.New("no quote available from any provider")

type Config struct {
	ProviderTimeout time.Duration // per-provider budget
	RetryPolicy     retry.Policy
	MaxAttempts     int
	Cache           *store.QuoteCache // nil disables caching
}

// Aggregator fans a quote request out to every registered provider and picks
// the quote with the largest raw output amount. Provider order is priority
// order; exact ties go to the earlier provider.
type Aggregator struct {
	providers   []provider.Adapter
	timeout     time.Duration
	policy      retry.Policy
	maxAttempts int
	cache       *store.QuoteCache
}

func New(providers []provider.Adapter, cfg Config) *Aggregator {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	return &Aggregator{
		providers:   providers,
		timeout:     cfg.ProviderTimeout,
		policy:      cfg.RetryPolicy,
		maxAttempts: cfg.MaxAttempts,
		cache:       cfg.Cache,
	}
}

// GetBestQuote queries all providers concurrently and waits for every one to
// finish or time out; a later provider may still beat an earlier success, so
// there is no early return. Provider failures only shrink the candidate set.
func (a *Aggregator) GetBestQuote(ctx context.Context, req model.SwapRequest) (*model.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if a.cache != nil {
		if q, ok := a.cache.Get(req.CacheKey()); ok {
			return q, nil
		}
	}

	// Indexed slice keeps priority order; each slot is either a fully valid
	// quote or nil, never a partial one.
	quotes := make([]*model.Quote, len(a.providers))
	var wg sync.WaitGroup
	for i, p := range a.providers {
		if !p.Supports(req.ChainID) {
			log.Debug().
				Str(logger.CategoryField, logger.CategoryQuote).
				Str("provider", p.Name()).
				Int64("chain_id", req.ChainID).
				Msg("chain not supported, skipping provider")
			continue
		}

		wg.Add(1)
		go func(i int, p provider.Adapter) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			q, err := retry.Do(pctx, "quote_"+p.Name(), a.policy, a.maxAttempts, provider.IsRetryable,
				func() (*model.Quote, error) {
					return p.GetQuote(pctx, req)
				})
			if err != nil {
				log.Debug().
					Str(logger.CategoryField, logger.CategoryQuote).
					Str("provider", p.Name()).
					Err(err).
					Msg("provider dropped for this request")
				return
			}
			quotes[i] = q
		}(i, p)
	}
	wg.Wait()

	candidates := lo.Filter(quotes, func(q *model.Quote, _ int) bool { return q != nil })
	if len(candidates) == 0 {
		log.Warn().
			Str(logger.CategoryField, logger.CategoryQuote).
			Int64("chain_id", req.ChainID).
			Msg("no quotes available from any provider")
		return nil, ErrNoQuote
	}

	best := lo.MaxBy(candidates, func(x, y *model.Quote) bool {
		return x.AmountOutInt().Cmp(y.AmountOutInt()) > 0
	})

	log.Info().
		Str(logger.CategoryField, logger.CategoryQuote).
		Str("provider", best.Source).
		Str("amount_out", best.AmountOut).
		Int("candidates", len(candidates)).
		Msg("best quote selected")

	if a.cache != nil {
		a.cache.Set(req.CacheKey(), best)
	}

	return best, nil
}
