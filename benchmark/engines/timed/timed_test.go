package timed

import (
	"context"
	engine "crudbench/benchmark/engines/abstract"
	"crudbench/benchmark/engines/memory"
	"crudbench/catalog"
	"crudbench/metrics"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBatch = errors.New("batch rejected")

type failingBatch struct {
	*memory.Memory
}

func (f failingBatch) InsertBatch(ctx context.Context, entities []catalog.Anime) error {
	return errBatch
}

func TestEveryDataOperationIsTimed(t *testing.T) {
	ctx := context.Background()
	recorder := metrics.NewRecorder()
	e := Wrap(memory.New(), recorder)

	require.NoError(t, e.Setup(ctx))
	id, err := e.InsertSimple(ctx, catalog.Anime{Title: "Eva"})
	require.NoError(t, err)
	_, err = e.InsertWithRelations(ctx, catalog.Anime{Title: "Lain"}, nil, []catalog.Review{{UserID: "alice", Rating: 5}})
	require.NoError(t, err)
	require.NoError(t, e.InsertBatch(ctx, []catalog.Anime{{Title: "a"}}))
	require.NoError(t, e.InsertBatchSimple(ctx, []catalog.Anime{{Title: "b"}}))
	_, err = e.FetchSimple(ctx, 10)
	require.NoError(t, err)
	_, err = e.FetchWithRelations(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, e.UpdateSimple(ctx, id, "Evangelion"))
	_, err = e.TopRated(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, e.DeleteAllWithRelations(ctx))

	stats := recorder.Summarize()
	for _, op := range []string{
		engine.OpFetchSimple, engine.OpFetchWithRelations, engine.OpInsertSimple,
		engine.OpInsertWithRelations, engine.OpInsertBatch, engine.OpInsertBatchSimple,
		engine.OpUpdateSimple, engine.OpDeleteAllWithRelations, engine.OpTopRated,
	} {
		assert.Equal(t, 1, stats[op].Count, op)
	}
	assert.Len(t, stats, 9)
}

func TestPassThroughOperationsAreNotTimed(t *testing.T) {
	ctx := context.Background()
	recorder := metrics.NewRecorder()
	e := Wrap(memory.New(), recorder)

	_, err := e.ExistingUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", e.GetConfigs()["engine"])
	require.NoError(t, e.Finalize(ctx))

	assert.Empty(t, recorder.Summarize())
}

func TestFailureIsRecordedUnderErrorName(t *testing.T) {
	recorder := metrics.NewRecorder()
	e := Wrap(failingBatch{memory.New()}, recorder)

	err := e.InsertBatch(context.Background(), nil)
	assert.Same(t, errBatch, err)

	stats := recorder.Summarize()
	assert.Equal(t, 1, stats[engine.OpInsertBatch+metrics.ErrorSuffix].Count)
	assert.NotContains(t, stats, engine.OpInsertBatch)
}
