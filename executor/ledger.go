package executor

import (
	"fmt"
	"sync"
	"time"

	"github.com/hellodex/swapengine/logger"
	"github.com/hellodex/swapengine/model"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const dayKeyFormat = "2006-01-02"

// LimitExceededError reports a rejected volume check with the attempted total
// and the configured cap.
type LimitExceededError struct {
	Symbol    string
	Attempted decimal.Decimal
	Cap       decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily volume limit exceeded for %s: $%s > $%s",
		e.Symbol, e.Attempted.StringFixed(2), e.Cap.StringFixed(2))
}

// VolumeLedger tracks per-symbol USD notional for the current UTC day and
// enforces a daily cap. Check-then-commit runs as one critical section, and
// the day rollover reset lives inside the same section so it cannot race a
// concurrent add.
type VolumeLedger struct {
	mu      sync.Mutex
	day     string
	volumes map[string]decimal.Decimal
	capUSD  decimal.Decimal
}

func NewVolumeLedger(capUSD decimal.Decimal) *VolumeLedger {
	return &VolumeLedger{
		volumes: make(map[string]decimal.Decimal),
		capUSD:  capUSD,
	}
}

// CheckAndAdd commits amountUSD against symbol's daily total, or rejects
// without mutating state when the cap would be exceeded. The caller supplies
// the current time; a new UTC day key resets all totals first.
func (l *VolumeLedger) CheckAndAdd(symbol string, amountUSD decimal.Decimal, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollover(now)

	newTotal := l.volumes[symbol].Add(amountUSD)
	if newTotal.GreaterThan(l.capUSD) {
		return &LimitExceededError{Symbol: symbol, Attempted: newTotal, Cap: l.capUSD}
	}

	l.volumes[symbol] = newTotal
	log.Info().
		Str(logger.CategoryField, logger.CategoryVolume).
		Str("symbol", symbol).
		Str("total_usd", newTotal.StringFixed(2)).
		Str("cap_usd", l.capUSD.StringFixed(2)).
		Msg("daily volume updated")
	return nil
}

// Status returns a read-only snapshot of the ledger.
func (l *VolumeLedger) Status(now time.Time) model.VolumeStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollover(now)

	volumes := make(map[string]decimal.Decimal, len(l.volumes))
	total := decimal.Zero
	for symbol, v := range l.volumes {
		volumes[symbol] = v
		total = total.Add(v)
	}

	return model.VolumeStatus{
		Date:         l.day,
		Volumes:      volumes,
		LimitUSD:     l.capUSD,
		TotalUSD:     total,
		RemainingUSD: l.capUSD.Sub(total),
	}
}

// rollover resets all totals when the UTC day changes. Caller holds l.mu.
func (l *VolumeLedger) rollover(now time.Time) {
	today := now.UTC().Format(dayKeyFormat)
	if l.day == today {
		return
	}
	if l.day != "" {
		log.Info().
			Str(logger.CategoryField, logger.CategoryVolume).
			Str("day", today).
			Msg("resetting daily volume")
	}
	l.volumes = make(map[string]decimal.Decimal)
	l.day = today
}
