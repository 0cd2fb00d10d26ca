package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/metocean-tools/logscreen/config"
	"github.com/metocean-tools/logscreen/logging"
	"github.com/metocean-tools/logscreen/sink"
)

// Runner processes a batch of loggers. Loggers have no data dependency on
// one another and run in parallel up to the worker limit; the only shared
// state is the sink's write mode, which the sink itself protects.
type Runner struct {
	sources []config.LoggerSource
	out     sink.Sink
	workers int
	log     logging.Logger
}

// BatchResults collects per-logger outcomes. A failed logger appears in
// both maps: whatever it produced before failing is kept.
type BatchResults struct {
	Results map[string]*Results
	Errors  map[string]error
}

// NewRunner creates a batch runner. A nil sink skips result writing;
// workers < 1 falls back to sequential processing.
func NewRunner(sources []config.LoggerSource, out sink.Sink, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		sources: sources,
		out:     out,
		workers: workers,
		log:     logging.GetGlobalLogger(),
	}
}

// Run processes every logger. Logger-scoped failures are recorded per
// logger and never stop the rest of the batch; only context cancellation
// winds the whole run down.
func (r *Runner) Run(ctx context.Context) *BatchResults {
	batch := &BatchResults{
		Results: make(map[string]*Results),
		Errors:  make(map[string]error),
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.workers)

	for _, src := range r.sources {
		src := src
		g.Go(func() error {
			res, err := r.runOne(ctx, src)

			mu.Lock()
			if res != nil {
				batch.Results[src.ID] = res
			}
			if err != nil {
				batch.Errors[src.ID] = err
				r.log.Error(err, "logger failed", logging.Fields{"logger": src.ID})
			}
			mu.Unlock()

			// Per-logger errors are collected, not propagated: every logger
			// in the batch must be attempted.
			return nil
		})
	}

	g.Wait()
	return batch
}

func (r *Runner) runOne(ctx context.Context, src config.LoggerSource) (*Results, error) {
	proc, err := NewProcessor(src, WithLogger(r.log))
	if err != nil {
		return nil, err
	}

	res, err := proc.Run(ctx)

	// Flush whatever was produced, even after a mid-run failure or
	// cancellation. The sink serializes the create/append transition.
	if r.out != nil && res != nil {
		if res.Stats != nil {
			if werr := r.out.WriteStats(res.Stats); werr != nil && err == nil {
				err = loggerErr(src.ID, werr)
			}
		}
		if len(res.Spectra) > 0 {
			if werr := r.out.WriteSpectra(src.ID, res.Spectra); werr != nil && err == nil {
				err = loggerErr(src.ID, werr)
			}
		}
	}

	return res, err
}
