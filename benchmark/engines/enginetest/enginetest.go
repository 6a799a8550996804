// Package enginetest checks that an engine implementation behaves as the benchmark expects.
package enginetest

import (
	"context"
	engine "crudbench/benchmark/engines/abstract"
	"crudbench/catalog"
	"crudbench/generator"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs the conformance tests. newEngine must return an engine whose Setup was not called yet
// and whose store is empty.
func Run(t *testing.T, newEngine func(t *testing.T) engine.Engine) {
	tests := map[string]func(t *testing.T, e engine.Engine){
		"InsertAndFetchSimple":        testInsertAndFetchSimple,
		"InsertAndFetchWithRelations": testInsertAndFetchWithRelations,
		"Batches":                     testBatches,
		"UpdateSimple":                testUpdateSimple,
		"DeleteAll":                   testDeleteAll,
		"TopRatedAndUsers":            testTopRatedAndUsers,
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e := newEngine(t)
			require.NoError(t, e.Setup(ctx))
			t.Cleanup(func() {
				e.DeleteAllWithRelations(ctx)
				e.Finalize(ctx)
			})
			test(t, e)
		})
	}
}

func entities(t *testing.T, n int) []catalog.Anime {
	generated, err := generator.New(int64(n), users{}).Generate(context.Background(), n)
	require.NoError(t, err)
	return generated
}

type users struct{}

func (users) ExistingUsers(ctx context.Context) ([]string, error) {
	return []string{"alice", "bob", "carol"}, nil
}

func testInsertAndFetchSimple(t *testing.T, e engine.Engine) {
	ctx := context.Background()
	a := entities(t, 1)[0]

	id, err := e.InsertSimple(ctx, a)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	fetched, err := e.FetchSimple(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fetched, 1)

	got := fetched[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, a.OriginalTitle, got.OriginalTitle)
	assert.Equal(t, a.Year, got.Year)
	assert.Equal(t, a.Synopsis, got.Synopsis)
	assert.Equal(t, a.Episodes, got.Episodes)
	assert.Equal(t, a.Duration, got.Duration)
	assert.Equal(t, a.IsDeleted, got.IsDeleted)
	assert.Equal(t, a.UpdatedBy, got.UpdatedBy)
	assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.Empty(t, got.Genres)
	assert.Empty(t, got.Reviews)
}

func testInsertAndFetchWithRelations(t *testing.T, e engine.Engine) {
	ctx := context.Background()
	a := entities(t, 1)[0]

	id, err := e.InsertWithRelations(ctx, a.Simple(), a.Genres, a.Reviews)
	require.NoError(t, err)

	fetched, err := e.FetchWithRelations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fetched, 1)

	got := fetched[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, a.Title, got.Title)
	assert.ElementsMatch(t, genreNames(a.Genres), genreNames(got.Genres))
	require.Len(t, got.Reviews, len(a.Reviews))
	for i, r := range a.Reviews {
		assert.Equal(t, r.UserID, got.Reviews[i].UserID)
		assert.Equal(t, r.Rating, got.Reviews[i].Rating)
		assert.Equal(t, r.Content, got.Reviews[i].Content)
	}

	simple, err := e.FetchSimple(ctx, 1)
	require.NoError(t, err)
	require.Len(t, simple, 1)
	assert.Empty(t, simple[0].Genres)
	assert.Empty(t, simple[0].Reviews)
}

func genreNames(genres []catalog.Genre) []string {
	names := map[string]bool{}
	for _, g := range genres {
		names[g.Name] = true
	}
	result := []string{}
	for name := range names {
		result = append(result, name)
	}
	return result
}

func testBatches(t *testing.T, e engine.Engine) {
	ctx := context.Background()
	batch := entities(t, 30)

	require.NoError(t, e.InsertBatch(ctx, batch))
	require.NoError(t, e.InsertBatchSimple(ctx, batch))

	simple, err := e.FetchSimple(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, simple, 60)

	limited, err := e.FetchWithRelations(ctx, 25)
	require.NoError(t, err)
	assert.Len(t, limited, 25)

	withRelations := 0
	all, err := e.FetchWithRelations(ctx, 1000)
	require.NoError(t, err)
	for _, a := range all {
		if len(a.Reviews) > 0 {
			withRelations++
			assert.NotEmpty(t, a.Genres)
		}
	}
	assert.Equal(t, 30, withRelations)

	require.NoError(t, e.InsertBatch(ctx, nil))
	require.NoError(t, e.InsertBatchSimple(ctx, nil))
}

func testUpdateSimple(t *testing.T, e engine.Engine) {
	ctx := context.Background()

	id, err := e.InsertSimple(ctx, entities(t, 1)[0])
	require.NoError(t, err)
	require.NoError(t, e.UpdateSimple(ctx, id, "Renamed"))

	fetched, err := e.FetchSimple(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, "Renamed", fetched[0].Title)
}

func testDeleteAll(t *testing.T, e engine.Engine) {
	ctx := context.Background()

	require.NoError(t, e.InsertBatch(ctx, entities(t, 5)))
	require.NoError(t, e.DeleteAllWithRelations(ctx))
	require.NoError(t, e.DeleteAllWithRelations(ctx))

	fetched, err := e.FetchWithRelations(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, fetched)

	users, err := e.ExistingUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func testTopRatedAndUsers(t *testing.T, e engine.Engine) {
	ctx := context.Background()
	a := entities(t, 2)

	a[0].Reviews = []catalog.Review{{UserID: "alice", Rating: 9}, {UserID: "bob", Rating: 7}}
	a[1].Reviews = []catalog.Review{{UserID: "carol", Rating: 3}}
	require.NoError(t, e.InsertBatch(ctx, a))
	_, err := e.InsertSimple(ctx, entities(t, 1)[0])
	require.NoError(t, err)

	top, err := e.TopRated(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, a[0].Title, top[0].Title)
	assert.InDelta(t, 8, top[0].AvgRating, 1e-9)
	assert.Equal(t, 2, top[0].TotalReviews)
	assert.InDelta(t, 3, top[1].AvgRating, 1e-9)

	top, err = e.TopRated(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	users, err := e.ExistingUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, users)
}
