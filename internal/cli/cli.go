package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-ingest/internal/config"
	"github.com/pfrederiksen/event-ingest/internal/logger"
	"github.com/pfrederiksen/event-ingest/internal/source"
	"github.com/pfrederiksen/event-ingest/internal/storage"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitFailures = 2
)

// exitCodeError carries a specific process exit code
type exitCodeError struct {
	Code int
	Err  error
}

func (e *exitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.Err }

// errWriteFailures signals a batch that finished with failed store writes
var errWriteFailures = errors.New("batch finished with store write failures")

// app holds the state shared by all commands of one invocation
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	envFile     string
	dataDir     string
	store       string
	postgresDSN string
	sources     string
	logLevel    string
	workers     int

	cfg *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newApp(os.Stdin, os.Stdout, os.Stderr).rootCmd()
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, now: time.Now}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-ingest",
		Short: "Normalize and deduplicate scraped event listings",
		Long: `A CLI tool that turns raw event fragments from many listing sources
into canonical, deduplicated event records.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", "", "Env file to load (default .env when present)")
	flags.StringVar(&a.dataDir, "data-dir", "", "Data directory for the file store")
	flags.StringVar(&a.store, "store", "", "Store backend: file, memory or postgres")
	flags.StringVar(&a.postgresDSN, "postgres-dsn", "", "Postgres connection string")
	flags.StringVar(&a.sources, "sources", "", "Source configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.IntVar(&a.workers, "workers", 0, "Concurrent store writers")

	cmd.AddCommand(
		a.ingestCmd(),
		a.parseDateCmd(),
		a.listCmd(),
		a.showCmd(),
		a.deleteCmd(),
		a.exportCmd(),
		a.watchCmd(),
	)
	return cmd
}

// setup loads configuration and applies explicitly set flags on top
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("store") {
		cfg.Store = a.store
	}
	if flags.Changed("postgres-dsn") {
		cfg.PostgresDSN = a.postgresDSN
	}
	if flags.Changed("sources") {
		cfg.Sources = a.sources
	}
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if flags.Changed("log-level") {
		level, err := logger.ParseLevel(a.logLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	logger.SetDefault(logger.New(cfg.LogLevel, a.errOut))
	return nil
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	store, err := a.cfg.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

func (a *app) loadSources() (*source.Registry, error) {
	registry, err := source.Load(a.cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	return registry, nil
}

// exitCode maps a command error to a process exit code
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitError
}

// Run executes the CLI with the given arguments and streams and returns
// the process exit code
func Run(args []string, in io.Reader, out, errOut io.Writer) int {
	cmd := newApp(in, out, errOut).rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return exitCode(err)
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
