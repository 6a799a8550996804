package engine

import (
	"context"
	"crudbench/catalog"
)

// Names under which the data operations are timed
const (
	OpFetchSimple            = "fetch_simple"
	OpFetchWithRelations     = "fetch_with_relations"
	OpInsertSimple           = "insert_simple"
	OpInsertWithRelations    = "insert_with_relations"
	OpInsertBatch            = "insert_batch"
	OpInsertBatchSimple      = "insert_batch_simple"
	OpUpdateSimple           = "update_simple"
	OpDeleteAllWithRelations = "delete_all_with_relations"
	OpTopRated               = "top_rated"
)

type Engine interface {
	// Creates the schema/buckets the engine needs
	Setup(ctx context.Context) error
	// Reads up to limit entries without their relations
	FetchSimple(ctx context.Context, limit int) ([]catalog.Anime, error)
	// Reads up to limit entries with their genres and reviews
	FetchWithRelations(ctx context.Context, limit int) ([]catalog.Anime, error)
	// Inserts one entry without relations, returning its id
	InsertSimple(ctx context.Context, anime catalog.Anime) (string, error)
	// Inserts one entry together with the given genres and reviews, returning its id
	InsertWithRelations(ctx context.Context, anime catalog.Anime, genres []catalog.Genre, reviews []catalog.Review) (string, error)
	// Inserts all entries with their relations
	InsertBatch(ctx context.Context, entities []catalog.Anime) error
	// Inserts all entries, ignoring their relations
	InsertBatchSimple(ctx context.Context, entities []catalog.Anime) error
	// Changes the title of an entry
	UpdateSimple(ctx context.Context, id string, title string) error
	// Deletes every entry and its relations
	DeleteAllWithRelations(ctx context.Context) error
	// Returns the n entries with the highest average review rating
	TopRated(ctx context.Context, n int) ([]catalog.RatedAnime, error)
	// Returns the ids of known reviewers (used to generate reviews)
	ExistingUsers(ctx context.Context) ([]string, error)
	// Returns the engine-specific configurations
	GetConfigs() map[string]string
	// Cleanup any resources
	Finalize(ctx context.Context) error
}
