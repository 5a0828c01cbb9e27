// Package runner wires catalogs, generators, output, index and metrics into
// one generation run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/google/uuid"

	"hoardgen.ai/internal/metrics"
	"hoardgen.ai/internal/persistence/indexdb"
	plog "hoardgen.ai/internal/persistence/log"
	"hoardgen.ai/internal/protocol"
	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/gem"
	"hoardgen.ai/internal/sim/rng"
	"hoardgen.ai/internal/sim/tuning"
	"hoardgen.ai/internal/sim/wine"
)

const (
	KindGem  = "gem"
	KindWine = "wine"
)

type Options struct {
	Tuning tuning.Tuning
	// Stdout receives records when Tuning.Output.Path is empty.
	Stdout  io.Writer
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type Result struct {
	RunID    string
	Seed     int64
	Produced int
}

// generateFunc produces one record from the run's generator.
type generateFunc func() (plog.Record, float64, error)

func Gems(ctx context.Context, opts Options, n int) (Result, error) {
	cat, err := catalogs.LoadGems(opts.Tuning.DataDir)
	if err != nil {
		return Result{}, fmt.Errorf("load catalogs: %w", err)
	}
	return run(ctx, opts, KindGem, n, cat.Refs(), func(r *rand.Rand, runID string, logger *slog.Logger) (generateFunc, error) {
		g, err := gem.NewGenerator(cat, r, logger)
		if err != nil {
			return nil, err
		}
		return func() (plog.Record, float64, error) {
			out, err := g.Generate()
			if err != nil {
				return nil, 0, err
			}
			v := g.Value(out)
			return protocol.NewGemRecord(runID, out, v), v, nil
		}, nil
	})
}

func Wines(ctx context.Context, opts Options, n int) (Result, error) {
	cat, err := catalogs.LoadWines(opts.Tuning.DataDir)
	if err != nil {
		return Result{}, fmt.Errorf("load catalogs: %w", err)
	}
	return run(ctx, opts, KindWine, n, cat.Refs(), func(r *rand.Rand, runID string, logger *slog.Logger) (generateFunc, error) {
		g, err := wine.NewGenerator(cat, opts.Tuning.WineCounts(), r, logger)
		if err != nil {
			return nil, err
		}
		return func() (plog.Record, float64, error) {
			out, err := g.Generate()
			if err != nil {
				return nil, 0, err
			}
			return protocol.NewWineRecord(runID, out), out.TotalValue(), nil
		}, nil
	})
}

// recentRuns bounds the run history returned by Index.
const recentRuns = 10

type IndexReport struct {
	Catalogs []indexdb.CatalogRow
	Runs     []indexdb.RunRow
}

// Index loads every table, upserts it into the catalog index and reports the
// indexed tables along with the most recent runs.
func Index(ctx context.Context, opts Options) (IndexReport, error) {
	var rep IndexReport
	if opts.Tuning.Index.Path == "" {
		return rep, errors.New("index path is not set")
	}
	cats, err := catalogs.Load(opts.Tuning.DataDir)
	if err != nil {
		return rep, fmt.Errorf("load catalogs: %w", err)
	}
	idx, err := indexdb.OpenSQLite(opts.Tuning.Index.Path)
	if err != nil {
		return rep, fmt.Errorf("open index: %w", err)
	}
	defer idx.Close()
	if err := idx.UpsertCatalogs(ctx, cats.Refs(), opts.Tuning); err != nil {
		return rep, fmt.Errorf("upsert catalogs: %w", err)
	}
	for _, r := range cats.Refs() {
		opts.Metrics.TableRows(r.Name, r.Count)
	}
	if err := opts.Metrics.WriteTextfile(opts.Tuning.Metrics.Textfile); err != nil {
		return rep, err
	}
	if rep.Catalogs, err = idx.Catalogs(ctx); err != nil {
		return rep, fmt.Errorf("list catalogs: %w", err)
	}
	if rep.Runs, err = idx.Runs(ctx, recentRuns); err != nil {
		return rep, fmt.Errorf("list runs: %w", err)
	}
	return rep, nil
}

func run(
	ctx context.Context,
	opts Options,
	kind string,
	n int,
	refs []catalogs.TableRef,
	build func(r *rand.Rand, runID string, logger *slog.Logger) (generateFunc, error),
) (res Result, err error) {
	if n < 0 {
		return res, fmt.Errorf("count must be >= 0, got %d", n)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r, seed := rng.New(opts.Tuning.Seed)
	res = Result{RunID: uuid.NewString(), Seed: seed}
	digest := catalogs.Digest(refs)
	logger = logger.With("run_id", res.RunID, "kind", kind)
	logger.Info("run start", "count", n, "seed", seed, "catalog_digest", digest)

	for _, ref := range refs {
		opts.Metrics.TableRows(ref.Name, ref.Count)
	}

	var idx *indexdb.SQLiteIndex
	if p := opts.Tuning.Index.Path; p != "" {
		if idx, err = indexdb.OpenSQLite(p); err != nil {
			return res, fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(ctx, refs, opts.Tuning); err != nil {
			return res, fmt.Errorf("upsert catalogs: %w", err)
		}
	}
	defer func() {
		row := indexdb.RunRow{
			RunID:         res.RunID,
			Kind:          kind,
			Requested:     n,
			Produced:      res.Produced,
			Seed:          seed,
			CatalogDigest: digest,
		}
		if err != nil {
			row.Error = err.Error()
		}
		if ierr := idx.RecordRun(context.WithoutCancel(ctx), row); ierr != nil {
			logger.Warn("index run", "error", ierr)
		}
		if merr := opts.Metrics.WriteTextfile(opts.Tuning.Metrics.Textfile); merr != nil {
			logger.Warn("metrics textfile", "error", merr)
		}
	}()

	out, err := openOutput(opts)
	if err != nil {
		return res, fmt.Errorf("open output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	// fail reports a generation failure on every sink before returning it.
	fail := func(msg string, gerr error) error {
		opts.Metrics.Failed(kind, gerr)
		logger.Error(msg, "code", protocol.CodeFor(gerr), "error", gerr)
		if opts.Tuning.Output.Format == tuning.FormatJSON {
			_ = out.Write(protocol.NewErrorRecord(res.RunID, gerr))
		}
		return fmt.Errorf("%s: %w", msg, gerr)
	}

	next, err := build(r, res.RunID, logger)
	if err != nil {
		return res, fail("build "+kind+" generator", err)
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, value, gerr := next()
		if gerr != nil {
			return res, fail(fmt.Sprintf("generate %s %d", kind, i+1), gerr)
		}
		if err := out.Write(rec); err != nil {
			return res, fmt.Errorf("write %s: %w", kind, err)
		}
		opts.Metrics.Generated(kind, value)
		res.Produced++
	}
	logger.Info("run done", "produced", res.Produced)
	return res, nil
}

func openOutput(opts Options) (*plog.RecordWriter, error) {
	if opts.Tuning.Output.Path != "" {
		return plog.Open(opts.Tuning.Output.Path, opts.Tuning.Output.Format)
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return plog.NewRecordWriter(stdout, opts.Tuning.Output.Format, false)
}
