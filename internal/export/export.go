// Package export writes the unified record table of a run to its outputs.
//
// Writers are independent of each other and run concurrently, bounded by a
// Limiter. A failing writer never stops the others; every failure is returned
// wrapped in a core.ExportError.
package export

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/reqtrace/internal/core"
	"github.com/JonMunkholm/reqtrace/internal/logging"
	"github.com/JonMunkholm/reqtrace/internal/record"
)

// Writer persists a run result to one target.
type Writer interface {
	Target() string
	Write(ctx context.Context, res *core.Result) error
}

// WriteAll runs every writer, at most limiter.MaxConcurrent() at a time, and
// returns the joined failures. A nil limiter runs writers one at a time.
func WriteAll(ctx context.Context, res *core.Result, limiter *Limiter, writers ...Writer) error {
	if limiter == nil {
		limiter = NewLimiter(1, 0)
	}
	logger := logging.FromContext(ctx)
	logger.Debug("export started",
		"writers", len(writers),
		"max_concurrent", limiter.MaxConcurrent(),
		"available", limiter.Available(),
	)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(target string, err error) {
		mu.Lock()
		errs = append(errs, &core.ExportError{Target: target, Err: err})
		mu.Unlock()
	}

	for _, w := range writers {
		wg.Add(1)
		go func(w Writer) {
			defer wg.Done()

			if err := limiter.Acquire(ctx); err != nil {
				fail(w.Target(), err)
				return
			}
			defer limiter.Release()
			logger.Debug("export slot acquired",
				"target", w.Target(),
				"active", limiter.ActiveCount(),
			)

			start := time.Now()
			if err := w.Write(ctx, res); err != nil {
				logger.Error("export failed", "target", w.Target(), "code", "EXP001", "error", err)
				fail(w.Target(), err)
				return
			}
			logger.Info("export complete",
				"target", w.Target(),
				"records", len(res.Records),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}(w)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func joinIDs(ids []string) string {
	return strings.Join(ids, record.IDSeparator)
}
