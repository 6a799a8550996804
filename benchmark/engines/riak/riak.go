// Package riak_engine stores every catalog entry as one JSON document in a Riak KV bucket, with
// its genres and reviews embedded.
package riak_engine

import (
	"context"
	"crudbench/catalog"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/basho/riak-go-client"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type Riak struct {
	client     *riak.Client
	bucket     bucket
	BucketType string `yaml:"bucketType"`
	Bucket     string `yaml:"bucket"`
	// Number of concurrent requests of the batch operations
	Concurrency int `yaml:"concurrency"`
	// Upper bound of the reviewer ids read by ExistingUsers
	MaxUsers int `yaml:"maxUsers"`
}

func configure(configData []byte) (*Riak, error) {
	r := Riak{BucketType: "default", Bucket: "anime", Concurrency: 32, MaxUsers: 1000}
	if len(configData) > 0 {
		if err := yaml.Unmarshal(configData, &r); err != nil {
			return nil, errors.Wrap(err, "decode riak config")
		}
	}
	if r.Concurrency <= 0 {
		r.Concurrency = 1
	}
	return &r, nil
}

// Creates the engine over a started client. configData holds the optional engine keys of the target.
func New(client *riak.Client, configData []byte) (*Riak, error) {
	r, err := configure(configData)
	if err != nil {
		return nil, err
	}
	r.client = client
	r.bucket = &riakBucket{client: client, bucketType: r.BucketType, bucket: r.Bucket}
	return r, nil
}

// Buckets need no schema, so this only checks that the cluster answers
func (r *Riak) Setup(ctx context.Context) error {
	return r.bucket.ping()
}

func encode(a catalog.Anime) ([]byte, error) {
	a.ID = ""
	value, err := json.Marshal(a)
	return value, errors.Wrap(err, "encode document")
}

func decode(key string, value []byte, relations bool) (catalog.Anime, error) {
	var a catalog.Anime
	if err := json.Unmarshal(value, &a); err != nil {
		return a, errors.Wrapf(err, "decode document %s", key)
	}
	a.ID = key
	if !relations {
		a = a.Simple()
	}
	return a, nil
}

// Returns the keys of the bucket in a stable order
func (r *Riak) sortedKeys() ([]string, error) {
	keys, err := r.bucket.keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Fetches the documents of the first limit keys (all keys when limit < 0)
func (r *Riak) load(ctx context.Context, limit int, relations bool) ([]catalog.Anime, error) {
	keys, err := r.sortedKeys()
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	docs := make([]catalog.Anime, len(keys))
	found := make([]bool, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for i, key := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, ok, err := r.bucket.get(key)
			if err != nil || !ok {
				return err
			}
			docs[i], err = decode(key, value, relations)
			found[i] = err == nil
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]catalog.Anime, 0, len(docs))
	for i, doc := range docs {
		if found[i] {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (r *Riak) FetchSimple(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return r.load(ctx, limit, false)
}

func (r *Riak) FetchWithRelations(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return r.load(ctx, limit, true)
}

func (r *Riak) insert(a catalog.Anime) (string, error) {
	value, err := encode(a)
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	return key, r.bucket.put(key, value)
}

func (r *Riak) InsertSimple(ctx context.Context, anime catalog.Anime) (string, error) {
	return r.insert(anime.Simple())
}

func (r *Riak) InsertWithRelations(ctx context.Context, anime catalog.Anime, genres []catalog.Genre, reviews []catalog.Review) (string, error) {
	anime.Genres = genres
	anime.Reviews = reviews
	return r.insert(anime)
}

// Stores the documents with at most Concurrency requests in flight
func (r *Riak) insertAll(ctx context.Context, entities []catalog.Anime) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for _, a := range entities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := r.insert(a)
			return err
		})
	}
	return g.Wait()
}

func (r *Riak) InsertBatch(ctx context.Context, entities []catalog.Anime) error {
	return r.insertAll(ctx, entities)
}

func (r *Riak) InsertBatchSimple(ctx context.Context, entities []catalog.Anime) error {
	simple := make([]catalog.Anime, len(entities))
	for i, a := range entities {
		simple[i] = a.Simple()
	}
	return r.insertAll(ctx, simple)
}

// Read-modify-write of the whole document; the default bucket type resolves concurrent writes
// with last-write-wins
func (r *Riak) UpdateSimple(ctx context.Context, id string, title string) error {
	value, ok, err := r.bucket.get(id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("anime %s not found", id)
	}

	a, err := decode(id, value, true)
	if err != nil {
		return err
	}
	a.Title = title
	a.UpdatedAt = time.Now()

	if value, err = encode(a); err != nil {
		return err
	}
	return r.bucket.put(id, value)
}

func (r *Riak) DeleteAllWithRelations(ctx context.Context) error {
	keys, err := r.bucket.keys()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return r.bucket.remove(key)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zlog.Debug().Str("bucket", r.Bucket).Int("documents", len(keys)).Msg("Deleted documents")
	return nil
}

// Riak KV has no aggregation, so the ratings are computed over every document
func (r *Riak) TopRated(ctx context.Context, n int) ([]catalog.RatedAnime, error) {
	docs, err := r.load(ctx, -1, true)
	if err != nil {
		return nil, err
	}

	rated := []catalog.RatedAnime{}
	for _, a := range docs {
		if ra, ok := catalog.Rate(a); ok {
			rated = append(rated, ra)
		}
	}
	return catalog.Top(rated, n), nil
}

func (r *Riak) ExistingUsers(ctx context.Context) ([]string, error) {
	docs, err := r.load(ctx, -1, true)
	if err != nil {
		return nil, err
	}

	users := catalog.Reviewers(docs)
	if len(users) > r.MaxUsers {
		users = users[:r.MaxUsers]
	}
	return users, nil
}

func (r *Riak) GetConfigs() map[string]string {
	return map[string]string{
		"engine":      "riak",
		"bucketType":  r.BucketType,
		"bucket":      r.Bucket,
		"concurrency": strconv.Itoa(r.Concurrency),
	}
}

func (r *Riak) Finalize(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Stop()
}
