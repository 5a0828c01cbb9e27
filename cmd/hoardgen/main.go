// Package main provides the hoardgen binary entry point.
// hoardgen rolls treasure (gems and wines) from weighted reference tables.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hoardgen.ai/internal/metrics"
	"hoardgen.ai/internal/runner"
	"hoardgen.ai/internal/sim/tuning"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "hoardgen"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand. Only flags the user set
// override the config file and environment.
type globalFlags struct {
	configPath      string
	dataDir         string
	seed            int64
	format          string
	outPath         string
	indexPath       string
	metricsTextfile string
	logLevel        string
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Procedural gem and wine generator",
		Long: `hoardgen rolls fictional treasure from weighted CSV reference tables.

Gems combine a mineral, a cut, a size and a clarity into a value category
that decides their worth. Wines combine notes, feels and a container, with
at most one trait from each exclusion pool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&g.dataDir, "data", "", "Directory holding the reference CSV tables")
	pf.Int64Var(&g.seed, "seed", 0, "Random seed (0 derives one from the clock)")
	pf.StringVar(&g.format, "format", "", "Output format (text, json)")
	pf.StringVarP(&g.outPath, "out", "o", "", "Write records to this file (.zst compresses)")
	pf.StringVar(&g.indexPath, "index", "", "SQLite catalog index path")
	pf.StringVar(&g.metricsTextfile, "metrics-textfile", "", "Write prometheus metrics to this file on exit")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		generateCmd(&g, runner.KindGem, "Generate gems", func(t tuning.Tuning) int { return t.Gem.Count }, runner.Gems),
		generateCmd(&g, runner.KindWine, "Generate wines", func(t tuning.Tuning) int { return t.Wine.Count }, runner.Wines),
		indexCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

type runFunc func(context.Context, runner.Options, int) (runner.Result, error)

func generateCmd(g *globalFlags, kind, short string, defaultCount func(tuning.Tuning) int, run runFunc) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options(cmd)
			if err != nil {
				return err
			}
			n := defaultCount(opts.Tuning)
			if cmd.Flags().Changed("count") {
				n = count
			}
			res, err := run(cmd.Context(), opts, n)
			if err != nil {
				return err
			}
			opts.Logger.Debug("run summary", "run_id", res.RunID, "seed", res.Seed, "produced", res.Produced)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of items (default from config)")
	return cmd
}

func indexCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Load every reference table into the SQLite catalog index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options(cmd)
			if err != nil {
				return err
			}
			rep, err := runner.Index(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rep.Catalogs {
				fmt.Fprintf(out, "%-24s %4d rows  %s\n", r.Name, r.Rows, shortDigest(r.Digest))
			}
			if len(rep.Runs) == 0 {
				return nil
			}
			fmt.Fprintln(out, "\nrecent runs:")
			for _, r := range rep.Runs {
				status := "ok"
				if r.Error != "" {
					status = "error: " + r.Error
				}
				fmt.Fprintf(out, "%s  %-4s %d/%d  seed=%d  %s\n", r.RecordedAt, r.Kind, r.Produced, r.Requested, r.Seed, status)
			}
			return nil
		},
	}
}

// options resolves tuning as defaults, then config file, then environment,
// then explicitly set flags.
func (g *globalFlags) options(cmd *cobra.Command) (runner.Options, error) {
	logger := newLogger(cmd.ErrOrStderr(), g.logLevel)

	t := tuning.Defaults()
	if g.configPath != "" {
		var err error
		if t, err = tuning.Load(g.configPath); err != nil {
			return runner.Options{}, fmt.Errorf("load config: %w", err)
		}
	}
	if err := tuning.ApplyEnv(&t); err != nil {
		return runner.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		t.DataDir = g.dataDir
	}
	if flags.Changed("seed") {
		t.Seed = g.seed
	}
	if flags.Changed("format") {
		t.Output.Format = g.format
	}
	if flags.Changed("out") {
		t.Output.Path = g.outPath
	}
	if flags.Changed("index") {
		t.Index.Path = g.indexPath
	}
	if flags.Changed("metrics-textfile") {
		t.Metrics.Textfile = g.metricsTextfile
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return runner.Options{}, fmt.Errorf("invalid settings: %w", err)
	}
	logger.Debug("settings", "data_dir", t.DataDir, "seed", t.Seed, "format", t.Output.Format)

	return runner.Options{
		Tuning:  t,
		Stdout:  cmd.OutOrStdout(),
		Logger:  logger,
		Metrics: metrics.New(),
	}, nil
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
