package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-ingest/internal/logger"
	"github.com/pfrederiksen/event-ingest/internal/metrics"
)

func (a *app) watchCmd() *cobra.Command {
	var opts batchOptions
	var schedule, metricsAddr string
	var runNow bool

	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-ingest fragment files on a cron schedule",
		Long: `Ingests the given files whenever the schedule fires. Collectors are
expected to rewrite the files between runs. The schedule takes the
standard five cron fields or descriptors such as "@every 30m".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("schedule") {
				schedule = a.cfg.Schedule
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.cfg.MetricsAddr
			}
			opts.files = args
			opts.metrics = metrics.New()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, schedule, metricsAddr, runNow, opts)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule (default from EVENT_INGEST_SCHEDULE or @every 1h)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address")
	cmd.Flags().BoolVar(&runNow, "run-now", true, "Run one batch immediately before waiting for the schedule")
	cmd.Flags().StringVar(&opts.reviewFile, "review-file", "", "Append review flags for skipped fragments to this JSON Lines file")
	return cmd
}

// watch runs batches on schedule until ctx is done
func (a *app) watch(ctx context.Context, schedule, metricsAddr string, runNow bool, opts batchOptions) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	if metricsAddr != "" {
		srv := metrics.NewServer(metricsAddr, opts.metrics)
		go func() {
			if err := srv.Serve(); err != nil {
				logger.Error("Metrics server stopped", logger.Fields{"addr": metricsAddr}, err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		logger.Info("Serving metrics", logger.Fields{"addr": metricsAddr})
	}

	batch := func() {
		report, err := a.runBatch(ctx, opts)
		if err != nil {
			logger.Error("Scheduled batch failed", logger.Fields{"schedule": schedule}, err)
			return
		}
		if report.HasFailures() {
			logger.Warn("Scheduled batch had store write failures", logger.Fields{"failed": report.Failed})
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, batch); err != nil {
		return fmt.Errorf("scheduling batch: %w", err)
	}

	if runNow {
		batch()
	}

	c.Start()
	logger.Info("Watching", logger.Fields{"schedule": schedule, "files": opts.files})

	<-ctx.Done()
	logger.Info("Stopping watch", nil)
	<-c.Stop().Done()
	return nil
}
