package store

import (
	"testing"
	"time"

	"github.com/hellodex/swapengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteCacheHitAndMiss(t *testing.T) {
	c := NewQuoteCache(time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	q := &model.Quote{Source: "1inch", AmountOut: "100"}
	c.Set("k", q)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, q, got)
}

func TestQuoteCacheExpiry(t *testing.T) {
	c := NewQuoteCache(20 * time.Millisecond)
	c.Set("k", &model.Quote{Source: "1inch"})

	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}
