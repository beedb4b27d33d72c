package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pfrederiksen/event-ingest/internal/event"
	"github.com/pfrederiksen/event-ingest/internal/logger"
	"github.com/pfrederiksen/event-ingest/internal/metrics"
	"github.com/pfrederiksen/event-ingest/internal/source"
	"github.com/pfrederiksen/event-ingest/internal/storage"
)

// Runner normalizes a batch of fragments and upserts the results
type Runner struct {
	Store      storage.Store
	Sources    *source.Registry
	Normalizer *Normalizer
	Workers    int
	Retry      RetryPolicy
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	// DryRun normalizes without writing; would-be writes count as inserted
	DryRun bool
}

func (r *Runner) log() *logger.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logger.Default()
}

// Run processes fragments and returns a report. Per-fragment failures are
// counted, never returned; the error is non-nil only when ctx ends the batch
// early, in which case the unprocessed fragments are missing from the counts.
func (r *Runner) Run(ctx context.Context, fragments []event.Fragment) (*Report, error) {
	normalizer := r.Normalizer
	if normalizer == nil {
		normalizer = NewNormalizer(WithMetrics(r.Metrics))
	}

	report := &Report{Total: len(fragments), StartedAt: time.Now()}
	var mu sync.Mutex
	record := func(outcome string, flag *ReviewFlag, sourceID string) {
		r.Metrics.Fragment(sourceID, outcome)
		mu.Lock()
		defer mu.Unlock()
		report.count(outcome)
		if flag != nil {
			report.Flags = append(report.Flags, *flag)
		}
	}

	pool := NewWorkerPool(r.Workers)
	for i, f := range fragments {
		i, f := i, f // per-iteration copy: go.mod targets go 1.21 loop semantics
		if !pool.Submit(ctx, func() {
			outcome, flag := r.process(ctx, normalizer, i, f)
			record(outcome, flag, f.SourceID)
		}) {
			break
		}
	}
	pool.Wait()

	sort.Slice(report.Flags, func(a, b int) bool { return report.Flags[a].Index < report.Flags[b].Index })
	report.FinishedAt = time.Now()
	r.Metrics.RunFinished(report.FinishedAt, report.Duration())

	r.log().Info("Batch finished", logger.Fields{
		"total":                  report.Total,
		"inserted":               report.Inserted,
		"updated":                report.Updated,
		"skipped_unparseable":    report.SkippedUnparseable,
		"skipped_missing_title":  report.SkippedMissingTitle,
		"skipped_unknown_source": report.SkippedUnknownSource,
		"skipped_invalid":        report.SkippedInvalid,
		"failed":                 report.Failed,
		"duration_ms":            report.Duration().Milliseconds(),
	})

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("batch interrupted after %d of %d fragments: %w", report.Processed(), report.Total, err)
	}
	return report, nil
}

func (r *Runner) process(ctx context.Context, n *Normalizer, index int, f event.Fragment) (string, *ReviewFlag) {
	log := r.log().With(logger.Fields{"source_id": f.SourceID, "index": index})

	flag := func(outcome string, err error) *ReviewFlag {
		return &ReviewFlag{
			Index:    index,
			SourceID: f.SourceID,
			Title:    f.Title,
			DateText: f.DateText,
			TimeText: f.TimeText,
			Outcome:  outcome,
			Reason:   err.Error(),
		}
	}

	var src *source.Config
	if r.Sources != nil {
		src, _ = r.Sources.Get(f.SourceID)
	}

	e, err := n.Normalize(f, src)
	if err != nil {
		outcome := skipOutcome(err)
		log.Warn("Fragment skipped", logger.Fields{"title": f.Title, "outcome": outcome, "reason": err.Error()})
		return outcome, flag(outcome, err)
	}

	if r.DryRun {
		log.Debug("Fragment normalized", logger.Fields{"event_id": e.ID, "title": e.Title})
		return OutcomeInserted, nil
	}

	retry := r.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy
	}
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.Metrics.StoreRetry()
		log.Warn("Store write failed, retrying", logger.Fields{
			"event_id": e.ID,
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
	}

	var res storage.UpsertResult
	err = retry.Do(ctx, "upsert "+e.ID, func() error {
		started := time.Now()
		var err error
		res, err = r.Store.Upsert(ctx, e)
		r.Metrics.ObserveStoreWrite(time.Since(started))
		if errors.Is(err, event.ErrInvalidEvent) || errors.Is(err, context.Canceled) {
			return Permanent(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, event.ErrInvalidEvent) {
			log.Warn("Event rejected by store", logger.Fields{"event_id": e.ID, "reason": err.Error()})
			return OutcomeSkippedInvalid, flag(OutcomeSkippedInvalid, err)
		}
		log.Error("Store write failed", logger.Fields{"event_id": e.ID, "title": e.Title}, err)
		return OutcomeFailed, flag(OutcomeFailed, err)
	}

	fields := logger.Fields{"event_id": res.ID, "title": e.Title, "outcome": string(res.Outcome)}
	if len(res.Replaced) > 0 {
		fields["replaced"] = res.Replaced
	}
	if len(res.Changes) > 0 && res.Outcome == storage.Updated {
		changed := make([]string, 0, len(res.Changes))
		for _, c := range res.Changes {
			changed = append(changed, c.ChangeType)
		}
		fields["changes"] = changed
	}
	log.Debug("Event stored", fields)

	if res.Outcome == storage.Inserted {
		return OutcomeInserted, nil
	}
	return OutcomeUpdated, nil
}

func skipOutcome(err error) string {
	switch {
	case errors.Is(err, ErrUnknownSource):
		return OutcomeSkippedUnknownSource
	case errors.Is(err, ErrMissingTitle):
		return OutcomeSkippedMissingTitle
	case errors.Is(err, ErrUnparseableDate):
		return OutcomeSkippedUnparseable
	default:
		return OutcomeSkippedInvalid
	}
}
