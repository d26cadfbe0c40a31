package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hellodex/swapengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, model.ExecutionResult{
		Status: model.StatusDryRun, Symbol: "WETH", AmountIn: "1", Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, sink.Append(ctx, model.ExecutionResult{
		Status: model.StatusError, Symbol: "USDC", Error: "balance check rejected", Timestamp: time.Now().UTC(),
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []model.ExecutionResult
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec model.ExecutionResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 2)
	assert.Equal(t, model.StatusDryRun, records[0].Status)
	assert.Equal(t, "WETH", records[0].Symbol)
	assert.Equal(t, model.StatusError, records[1].Status)
	assert.Equal(t, "balance check rejected", records[1].Error)
}

func TestNopSink(t *testing.T) {
	assert.NoError(t, Nop{}.Append(context.Background(), model.ExecutionResult{}))
}
