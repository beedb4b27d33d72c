package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-ingest/internal/event"
	"github.com/pfrederiksen/event-ingest/internal/logger"
	"github.com/pfrederiksen/event-ingest/internal/metrics"
	"github.com/pfrederiksen/event-ingest/internal/pipeline"
)

// batchOptions configures one ingest run
type batchOptions struct {
	files      []string
	dryRun     bool
	reviewFile string
	metrics    *metrics.Metrics
}

func (a *app) ingestCmd() *cobra.Command {
	var opts batchOptions
	var format string

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Normalize fragment files and upsert the resulting events",
		Long: `Reads fragments as a JSON array or JSON Lines from each file, or from
stdin when no file or "-" is given. Exits with status 2 when any store
write failed after retries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			opts.files = args

			report, err := a.runBatch(cmd.Context(), opts)
			if report != nil {
				if werr := WriteReport(a.out, report, outFormat); werr != nil {
					return fmt.Errorf("writing output: %w", werr)
				}
			}
			if err != nil {
				return err
			}
			if report.HasFailures() {
				return &exitCodeError{Code: ExitFailures, Err: errWriteFailures}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Normalize without writing to the store")
	cmd.Flags().StringVar(&opts.reviewFile, "review-file", "", "Append review flags for skipped fragments to this JSON Lines file")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

// readInputs decodes fragments from every file, "-" meaning stdin
func (a *app) readInputs(files []string) ([]event.Fragment, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}

	var all []event.Fragment
	for _, name := range files {
		var fragments []event.Fragment
		var err error
		if name == "-" {
			fragments, err = pipeline.ReadFragments(a.in)
		} else {
			fragments, err = readFragmentFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		all = append(all, fragments...)
	}
	return all, nil
}

func readFragmentFile(path string) ([]event.Fragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pipeline.ReadFragments(f)
}

// runBatch reads, normalizes and stores one batch
func (a *app) runBatch(ctx context.Context, opts batchOptions) (*pipeline.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	fragments, err := a.readInputs(opts.files)
	if err != nil {
		return nil, err
	}

	registry, err := a.loadSources()
	if err != nil {
		return nil, err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	runner := &pipeline.Runner{
		Store:      store,
		Sources:    registry,
		Normalizer: pipeline.NewNormalizer(pipeline.WithReference(a.now), pipeline.WithMetrics(opts.metrics)),
		Workers:    a.cfg.Workers,
		Retry: pipeline.RetryPolicy{
			MaxAttempts: a.cfg.MaxRetries,
			BaseDelay:   a.cfg.RetryDelay,
			MaxDelay:    5 * time.Second,
		},
		Logger:  logger.Default(),
		Metrics: opts.metrics,
		DryRun:  opts.dryRun,
	}

	report, runErr := runner.Run(ctx, fragments)

	if opts.reviewFile != "" && report != nil && len(report.Flags) > 0 {
		if err := appendFlags(opts.reviewFile, report); err != nil {
			return report, err
		}
	}
	return report, runErr
}

func appendFlags(path string, report *pipeline.Report) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening review file: %w", err)
	}
	if err := report.WriteFlags(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
