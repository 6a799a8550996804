package benchmark

import (
	"context"
	engine "crudbench/benchmark/engines/abstract"
	"crudbench/benchmark/engines/timed"
	"crudbench/catalog"
	"crudbench/metrics"
	"crudbench/report"
	"crudbench/results"
	"crudbench/util"
	"crudbench/worker"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
)

// Number of entries the extended battery asks for in top_rated
const topRatedCount = 10

type Config struct {
	DataSizes  []int
	Iterations int
	// Wait between iterations, so the store can settle
	Pause      time.Duration
	OutputFile string
	// Also run update_simple and top_rated in every iteration
	Extended bool
}

// Produces the synthetic entries of an iteration
type Generator interface {
	Generate(ctx context.Context, n int) ([]catalog.Anime, error)
}

// Tester runs a full benchmark against one engine: for each data size, a number of iterations of
// the operation batteries, followed by one persisted record with the statistics of that size.
type Tester struct {
	name      string
	engine    engine.Engine
	recorder  *metrics.Recorder
	generator Generator
	config    Config
	worker    *worker.Worker
	out       io.Writer
	now       func() time.Time
}

// Creates a tester for the engine. Every data operation of the engine is timed into recorder;
// out receives the console summary printed after each data size.
func New(name string, e engine.Engine, recorder *metrics.Recorder, generator Generator, config Config, out io.Writer) *Tester {
	return &Tester{
		name:      name,
		engine:    timed.Wrap(e, recorder),
		recorder:  recorder,
		generator: generator,
		config:    config,
		worker:    worker.NewWorker(name),
		out:       out,
		now:       time.Now,
	}
}

func (t *Tester) log(msg string) {
	zlog.Info().Str("target", t.name).Msg(msg)
}

// Completed/aborted operation counts of the run so far
func (t *Tester) Results() worker.Results {
	return t.worker.Results()
}

// Runs the benchmark. Failing operations are recorded and logged but do not stop the run; any
// other failure (generating data, cleaning up, saving results) aborts it. In every case the
// store is emptied once more before returning.
func (t *Tester) Run(ctx context.Context) (err error) {
	defer func() {
		t.log("Final cleanup")
		if cleanupErr := t.engine.DeleteAllWithRelations(context.WithoutCancel(ctx)); cleanupErr != nil {
			err = multierror.Append(err, errors.Wrap(cleanupErr, "final cleanup"))
			return
		}
		t.log("Cleanup completed")
	}()

	for _, size := range t.config.DataSizes {
		zlog.Info().Str("target", t.name).Int("size", size).Msg("Running tests for size")
		start := util.EpochSeconds()

		for i := 0; i < t.config.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "benchmark interrupted")
			}

			zlog.Info().Str("target", t.name).Int("size", size).
				Int("iteration", i+1).Int("iterations", t.config.Iterations).Msg("Iteration")

			if err := t.iteration(ctx, size); err != nil {
				return errors.Wrapf(err, "size %d, iteration %d", size, i+1)
			}
		}

		zlog.Info().Str("target", t.name).Int("size", size).
			Float64("elapsed", util.EpochSeconds()-start).Msg("Size done")

		if err := t.saveResults(size); err != nil {
			return err
		}
		t.recorder.Reset()
	}

	return nil
}

func (t *Tester) iteration(ctx context.Context, size int) error {
	t.log("Generating test data...")
	entities, err := t.generator.Generate(ctx, size)
	if err != nil {
		return errors.Wrapf(err, "generate %d entities", size)
	}

	t.batchOperations(ctx, size, entities)

	insertedID, err := t.singleOperations(ctx)
	if err != nil {
		return err
	}

	if t.config.Extended {
		t.extendedOperations(ctx, insertedID)
	}

	t.log("Cleaning up database...")
	if err := t.engine.DeleteAllWithRelations(ctx); err != nil {
		return errors.Wrap(err, "clean up database")
	}

	t.pause(ctx)
	return nil
}

// Operations over many entries
func (t *Tester) batchOperations(ctx context.Context, size int, entities []catalog.Anime) {
	t.worker.Run("batch", []worker.Operation{
		{Name: "batch_insert_with_relations", Run: func() error {
			return t.engine.InsertBatch(ctx, entities)
		}},
		{Name: "batch_insert_simple", Run: func() error {
			return t.engine.InsertBatchSimple(ctx, entities)
		}},
		{Name: "batch_fetch_simple", Run: func() error {
			_, err := t.engine.FetchSimple(ctx, size)
			return err
		}},
		{Name: "batch_fetch_with_relations", Run: func() error {
			_, err := t.engine.FetchWithRelations(ctx, size)
			return err
		}},
	})
}

// Operations over a single entry, in the context of the populated store. Returns the id of the
// entry inserted by single_insert_simple, or "" if that insert failed.
func (t *Tester) singleOperations(ctx context.Context) (string, error) {
	generated, err := t.generator.Generate(ctx, 1)
	if err != nil {
		return "", errors.Wrap(err, "generate single entity")
	}
	if len(generated) == 0 {
		return "", errors.New("generate single entity: generator returned no entities")
	}
	single := generated[0]

	// unique titles, so both inserts can coexist in stores that enforce it
	simple := single.Simple()
	simple.Title = "Test Single " + t.now().Format("2006-01-02T15:04:05.000000")
	withRelations := simple
	withRelations.Title = simple.Title + "_relations"

	var insertedID string
	t.worker.Run("single", []worker.Operation{
		{Name: "single_insert_simple", Run: func() error {
			id, err := t.engine.InsertSimple(ctx, simple)
			insertedID = id
			return err
		}},
		{Name: "single_insert_with_relations", Run: func() error {
			_, err := t.engine.InsertWithRelations(ctx, withRelations, single.Genres, single.Reviews)
			return err
		}},
		{Name: "single_fetch_simple", Run: func() error {
			_, err := t.engine.FetchSimple(ctx, 1)
			return err
		}},
		{Name: "single_fetch_with_relations", Run: func() error {
			_, err := t.engine.FetchWithRelations(ctx, 1)
			return err
		}},
	})

	return insertedID, nil
}

// Updates and aggregate queries
func (t *Tester) extendedOperations(ctx context.Context, insertedID string) {
	operations := []worker.Operation{}

	if insertedID != "" {
		operations = append(operations, worker.Operation{Name: "single_update_simple", Run: func() error {
			return t.engine.UpdateSimple(ctx, insertedID, "Updated "+t.now().Format(time.RFC3339Nano))
		}})
	}
	operations = append(operations, worker.Operation{Name: "top_rated", Run: func() error {
		_, err := t.engine.TopRated(ctx, topRatedCount)
		return err
	}})

	t.worker.Run("extended", operations)
}

func (t *Tester) pause(ctx context.Context) {
	if t.config.Pause <= 0 {
		return
	}

	timer := time.NewTimer(t.config.Pause)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (t *Tester) saveResults(size int) error {
	stats := t.recorder.Summarize()
	record := results.NewRecord(size, t.config.Iterations, t.now(), stats)

	if err := results.Append(t.config.OutputFile, record); err != nil {
		return errors.Wrapf(err, "save results of size %d", size)
	}

	zlog.Info().Str("target", t.name).Str("file", t.config.OutputFile).Msg("Results saved")
	report.PrintSummary(t.out, size, stats)
	return nil
}
