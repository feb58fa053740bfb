package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tracklist/internal/audio"
	"tracklist/internal/logging"
	"tracklist/internal/providers"
	"tracklist/internal/segment"
	"tracklist/internal/tracklist"
)

// Identifier resolves one segment into its result set, best first. The
// orchestrator is the production implementation; tests substitute fakes.
type Identifier interface {
	Identify(ctx context.Context, src audio.Source, seg segment.Segment) ([]providers.Result, error)
}

// Options configure a run.
type Options struct {
	Segmenter  segment.Segmenter
	Identifier Identifier
	Matcher    tracklist.MatcherOptions
	// Workers bounds concurrent in-flight segments; values below 1 mean 1.
	Workers int
	Logger  *slog.Logger
}

// Report summarizes one completed (or cancelled) run.
type Report struct {
	RunID             string              `json:"run_id"`
	SourceID          string              `json:"source_id"`
	Tracklist         tracklist.Tracklist `json:"tracklist"`
	SegmentsTotal     int                 `json:"segments_total"`
	SegmentsProcessed int                 `json:"segments_processed"`
	SegmentsFailed    int                 `json:"segments_failed"`
	// Partial is true when cancellation stopped the run before every
	// segment was delivered to the matcher.
	Partial    bool          `json:"partial"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed"`
}

// outcome pairs a completed segment with its results for reordering.
type outcome struct {
	seg     segment.Segment
	results []providers.Result
}

// Run executes the full pipeline over one source. It returns an error only
// for planning failures; cancellation mid-run yields a partial Report with
// a nil error so callers always get the tracklist built so far.
func Run(ctx context.Context, src audio.Source, opts Options) (Report, error) {
	started := time.Now()
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	report := Report{
		RunID:     uuid.NewString(),
		SourceID:  src.ID(),
		StartedAt: started,
	}

	plan, err := opts.Segmenter.Plan(src.Duration())
	if err != nil {
		return report, err
	}
	report.SegmentsTotal = len(plan)

	logger.Info("run started",
		logging.String(logging.FieldRunID, report.RunID),
		logging.Int("segments", len(plan)),
		logging.Int("workers", workerCount(opts.Workers)),
		logging.String(logging.FieldEventType, "run_started"))

	matcher := tracklist.NewMatcher(opts.Matcher)
	if len(plan) > 0 {
		report.SegmentsProcessed, report.SegmentsFailed = dispatch(ctx, src, plan, opts, matcher, logger)
	}
	report.Partial = report.SegmentsProcessed < report.SegmentsTotal
	report.Tracklist = matcher.Finalize()
	report.Elapsed = time.Since(started)

	logger.Info("run finished",
		logging.String(logging.FieldRunID, report.RunID),
		logging.Int("processed", report.SegmentsProcessed),
		logging.Int("failed", report.SegmentsFailed),
		logging.Bool("partial", report.Partial),
		logging.Int("tracks", len(report.Tracklist.Tracks)),
		logging.String(logging.FieldEventType, "run_finished"))
	return report, nil
}

// dispatch runs the worker pool and delivers outcomes to the matcher in
// ascending segment order. It returns how many segments were delivered and
// how many of those had no usable result.
func dispatch(ctx context.Context, src audio.Source, plan []segment.Segment, opts Options, matcher *tracklist.Matcher, logger *slog.Logger) (processed, failed int) {
	jobs := make(chan segment.Segment)
	outcomes := make(chan outcome, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, seg := range plan {
			select {
			case jobs <- seg:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workerCount(opts.Workers); w++ {
		g.Go(func() error {
			for seg := range jobs {
				results, err := opts.Identifier.Identify(gctx, src, seg)
				if err != nil {
					return err
				}
				outcomes <- outcome{seg: seg, results: results}
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		if err := g.Wait(); err != nil {
			logger.Info("run cancelled",
				logging.Error(err),
				logging.String(logging.FieldEventType, "run_cancelled"))
		}
		close(outcomes)
		close(done)
	}()

	// Reorder buffer: outcomes arrive in completion order but the matcher
	// needs them in index order. Buffer out-of-order arrivals and flush the
	// contiguous run each time the next expected index lands.
	pending := make(map[int]outcome, len(plan))
	next := 0
	for out := range outcomes {
		pending[out.seg.Index] = out
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			matcher.Consume(ready.seg, ready.results)
			processed++
			if isFailed(ready.results) {
				failed++
			}
			next++
		}
	}
	<-done
	return processed, failed
}

// isFailed reports whether a segment produced no successful result.
func isFailed(results []providers.Result) bool {
	for _, r := range results {
		if r.Succeeded {
			return false
		}
	}
	return true
}

func workerCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
