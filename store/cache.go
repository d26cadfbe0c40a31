package store

import (
	"time"

	"github.com/hellodex/swapengine/model"
	"github.com/patrickmn/go-cache"
)

const DefaultQuoteTTL = 5 * time.Second

// QuoteCache holds recent best quotes for a short TTL so bursts of identical
// requests don't fan out to every provider again. Quotes go stale fast;
// keep the TTL in seconds.
type QuoteCache struct {
	store *cache.Cache
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{
		store: cache.New(ttl, 10*ttl),
	}
}

func (c *QuoteCache) Get(key string) (*model.Quote, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	q, ok := v.(*model.Quote)
	return q, ok
}

func (c *QuoteCache) Set(key string, q *model.Quote) {
	c.store.SetDefault(key, q)
}
