// Package timed decorates an engine so that every data operation is timed into a Recorder.
package timed

import (
	"context"
	engine "crudbench/benchmark/engines/abstract"
	"crudbench/catalog"
	"crudbench/metrics"
)

type Timed struct {
	engine   engine.Engine
	recorder *metrics.Recorder
}

// Wraps e so that its data operations are recorded into r. Setup, Finalize, ExistingUsers and
// GetConfigs are passed through untimed.
func Wrap(e engine.Engine, r *metrics.Recorder) *Timed {
	return &Timed{engine: e, recorder: r}
}

func (t *Timed) Setup(ctx context.Context) error {
	return t.engine.Setup(ctx)
}

func (t *Timed) FetchSimple(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return metrics.Time(t.recorder, engine.OpFetchSimple, func() ([]catalog.Anime, error) {
		return t.engine.FetchSimple(ctx, limit)
	})
}

func (t *Timed) FetchWithRelations(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return metrics.Time(t.recorder, engine.OpFetchWithRelations, func() ([]catalog.Anime, error) {
		return t.engine.FetchWithRelations(ctx, limit)
	})
}

func (t *Timed) InsertSimple(ctx context.Context, anime catalog.Anime) (string, error) {
	return metrics.Time(t.recorder, engine.OpInsertSimple, func() (string, error) {
		return t.engine.InsertSimple(ctx, anime)
	})
}

func (t *Timed) InsertWithRelations(ctx context.Context, anime catalog.Anime, genres []catalog.Genre, reviews []catalog.Review) (string, error) {
	return metrics.Time(t.recorder, engine.OpInsertWithRelations, func() (string, error) {
		return t.engine.InsertWithRelations(ctx, anime, genres, reviews)
	})
}

func (t *Timed) InsertBatch(ctx context.Context, entities []catalog.Anime) error {
	return metrics.TimeErr(t.recorder, engine.OpInsertBatch, func() error {
		return t.engine.InsertBatch(ctx, entities)
	})
}

func (t *Timed) InsertBatchSimple(ctx context.Context, entities []catalog.Anime) error {
	return metrics.TimeErr(t.recorder, engine.OpInsertBatchSimple, func() error {
		return t.engine.InsertBatchSimple(ctx, entities)
	})
}

func (t *Timed) UpdateSimple(ctx context.Context, id string, title string) error {
	return metrics.TimeErr(t.recorder, engine.OpUpdateSimple, func() error {
		return t.engine.UpdateSimple(ctx, id, title)
	})
}

func (t *Timed) DeleteAllWithRelations(ctx context.Context) error {
	return metrics.TimeErr(t.recorder, engine.OpDeleteAllWithRelations, func() error {
		return t.engine.DeleteAllWithRelations(ctx)
	})
}

func (t *Timed) TopRated(ctx context.Context, n int) ([]catalog.RatedAnime, error) {
	return metrics.Time(t.recorder, engine.OpTopRated, func() ([]catalog.RatedAnime, error) {
		return t.engine.TopRated(ctx, n)
	})
}

func (t *Timed) ExistingUsers(ctx context.Context) ([]string, error) {
	return t.engine.ExistingUsers(ctx)
}

func (t *Timed) GetConfigs() map[string]string {
	return t.engine.GetConfigs()
}

func (t *Timed) Finalize(ctx context.Context) error {
	return t.engine.Finalize(ctx)
}
