package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/mesh-intelligence/almanac/internal/logger"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// DefaultYieldDelay is the pause between chunks when none is configured.
const DefaultYieldDelay = 5 * time.Millisecond

// A Yielder is called between chunks so a long import does not monopolize
// the store or the process.
type Yielder interface {
	Yield(ctx context.Context) error
}

// YieldFunc adapts a function to Yielder.
type YieldFunc func(ctx context.Context) error

// Yield calls f(ctx).
func (f YieldFunc) Yield(ctx context.Context) error { return f(ctx) }

// NoYield continues immediately.
var NoYield Yielder = YieldFunc(func(context.Context) error { return nil })

// Sleep returns a Yielder that pauses for d, or until ctx is done. A
// non-positive d only yields the processor.
func Sleep(d time.Duration) Yielder {
	return sleeper(d)
}

type sleeper time.Duration

func (s sleeper) Yield(ctx context.Context) error {
	if s <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(s))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ChunkedWriter writes records to a table in consecutive BulkAdd calls of
// at most ChunkSize records.
type ChunkedWriter struct {
	// ChunkSize is the number of records per BulkAdd. Zero or less means
	// types.DefaultChunkSize.
	ChunkSize int

	// Yielder runs between chunks, never after the last. Nil means NoYield.
	Yielder Yielder
}

// Write inserts records in input order and returns how many were written.
// On error it returns the count of records in chunks that completed.
func (w ChunkedWriter) Write(ctx context.Context, table types.Table, records []json.RawMessage) (int, error) {
	size := w.ChunkSize
	if size <= 0 {
		size = types.DefaultChunkSize
	}
	yielder := w.Yielder
	if yielder == nil {
		yielder = NoYield
	}

	written := 0
	for chunk := 0; written < len(records); chunk++ {
		if chunk > 0 {
			if err := yielder.Yield(ctx); err != nil {
				return written, fmt.Errorf("%s chunk %d: %w", table.Name(), chunk, err)
			}
		}
		end := min(written+size, len(records))
		if err := table.BulkAdd(ctx, records[written:end]); err != nil {
			logger.Error("bulk insert failed", "table", table.Name(), "chunk", chunk, "records", end-written, "error", err)
			return written, fmt.Errorf("%s chunk %d: %w", table.Name(), chunk, err)
		}
		logger.Debug("chunk written", "table", table.Name(), "chunk", chunk, "records", end-written)
		written = end
	}
	return written, nil
}
