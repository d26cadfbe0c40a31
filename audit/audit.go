package audit

import (
	"context"

	"github.com/hellodex/swapengine/model"
)

// Sink is an append-only write target for execution records. The executor
// logs append failures and never propagates them; no read contract exists.
type Sink interface {
	Append(ctx context.Context, rec model.ExecutionResult) error
}

// Nop discards records.
type Nop struct{}

func (Nop) Append(context.Context, model.ExecutionResult) error { return nil }
