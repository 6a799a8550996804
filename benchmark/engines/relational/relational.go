// Package relational stores the catalog in normalized tables (anime, genre, anime_genre, review)
// through database/sql. It runs on PostgreSQL (lib/pq) and SQLite (go-sqlite3).
package relational

import (
	"context"
	"crudbench/catalog"
	dbutils "crudbench/dbUtils"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Relational struct {
	db     *sql.DB
	driver string
	// Rows per statement in insert_batch_simple (sqlite3 only; postgres uses COPY)
	BatchSize int `yaml:"batchSize"`
	// Vacuum the database during setup
	Vacuum bool `yaml:"vacuum"`
	// Upper bound of the reviewer ids read by ExistingUsers
	MaxUsers int `yaml:"maxUsers"`
	// Drop and recreate the tables during setup
	Reset bool `yaml:"reset"`
}

// Creates the engine over an open connection pool. driver is "postgres" or "sqlite3"; configData
// holds the optional engine keys of the target.
func New(db *sql.DB, driver string, configData []byte) (*Relational, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, errors.Errorf("unsupported driver %q", driver)
	}

	r := Relational{BatchSize: 100, MaxUsers: 1000}
	if len(configData) > 0 {
		if err := yaml.Unmarshal(configData, &r); err != nil {
			return nil, errors.Wrap(err, "decode relational config")
		}
	}
	if r.BatchSize <= 0 {
		r.BatchSize = 100
	}
	r.db = db
	r.driver = driver
	return &r, nil
}

func (r *Relational) Setup(ctx context.Context) error {
	if r.Reset {
		err := dbutils.ExecAll(ctx, r.db,
			"drop table if exists review",
			"drop table if exists anime_genre",
			"drop table if exists genre",
			"drop table if exists anime")
		if err != nil {
			return err
		}
	}

	if err := dbutils.ExecAll(ctx, r.db, schemas[r.driver]...); err != nil {
		return errors.Wrap(err, "create schema")
	}

	if r.Vacuum {
		return errors.Wrap(dbutils.Vacuum(ctx, r.db, r.driver), "vacuum")
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func animeArgs(a catalog.Anime) []any {
	return []any{a.Title, a.OriginalTitle, a.Year, a.Synopsis, a.Episodes, a.Duration,
		a.IsDeleted, a.CreatedAt, a.UpdatedAt, a.UpdatedBy}
}

// Fills in the audit timestamps the generator may have left empty
func stamp(a catalog.Anime, now time.Time) catalog.Anime {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	return a
}

func (r *Relational) fetchAnime(ctx context.Context, q queryer, limit int) ([]catalog.Anime, map[int64]int, error) {
	rows, err := q.QueryContext(ctx, selectAnime, limit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "select anime")
	}
	defer rows.Close()

	result := []catalog.Anime{}
	index := map[int64]int{}
	for rows.Next() {
		var id int64
		var a catalog.Anime
		err := rows.Scan(&id, &a.Title, &a.OriginalTitle, &a.Year, &a.Synopsis, &a.Episodes,
			&a.Duration, &a.IsDeleted, &a.CreatedAt, &a.UpdatedAt, &a.UpdatedBy)
		if err != nil {
			return nil, nil, errors.Wrap(err, "scan anime")
		}
		a.ID = strconv.FormatInt(id, 10)
		index[id] = len(result)
		result = append(result, a)
	}

	return result, index, errors.Wrap(rows.Err(), "select anime")
}

func (r *Relational) FetchSimple(ctx context.Context, limit int) ([]catalog.Anime, error) {
	result, _, err := r.fetchAnime(ctx, r.db, limit)
	return result, err
}

func (r *Relational) FetchWithRelations(ctx context.Context, limit int) ([]catalog.Anime, error) {
	var result []catalog.Anime

	err := dbutils.InTx(ctx, r.db, func(tx *sql.Tx) error {
		anime, index, err := r.fetchAnime(ctx, tx, limit)
		if err != nil {
			return err
		}
		if err := fetchGenres(ctx, tx, limit, anime, index); err != nil {
			return err
		}
		if err := fetchReviews(ctx, tx, limit, anime, index); err != nil {
			return err
		}
		result = anime
		return nil
	})

	return result, err
}

func fetchGenres(ctx context.Context, q queryer, limit int, anime []catalog.Anime, index map[int64]int) error {
	rows, err := q.QueryContext(ctx, selectGenres, limit)
	if err != nil {
		return errors.Wrap(err, "select genres")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var g catalog.Genre
		if err := rows.Scan(&id, &g.Name, &g.Description); err != nil {
			return errors.Wrap(err, "scan genre")
		}
		if i, ok := index[id]; ok {
			anime[i].Genres = append(anime[i].Genres, g)
		}
	}
	return errors.Wrap(rows.Err(), "select genres")
}

func fetchReviews(ctx context.Context, q queryer, limit int, anime []catalog.Anime, index map[int64]int) error {
	rows, err := q.QueryContext(ctx, selectReviews, limit)
	if err != nil {
		return errors.Wrap(err, "select reviews")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var rv catalog.Review
		if err := rows.Scan(&id, &rv.UserID, &rv.Rating, &rv.Content, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return errors.Wrap(err, "scan review")
		}
		if i, ok := index[id]; ok {
			anime[i].Reviews = append(anime[i].Reviews, rv)
		}
	}
	return errors.Wrap(rows.Err(), "select reviews")
}

func (r *Relational) InsertSimple(ctx context.Context, anime catalog.Anime) (string, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, insertAnime, animeArgs(stamp(anime, time.Now()))...).Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, "insert anime")
	}
	return strconv.FormatInt(id, 10), nil
}

// Prepared statements of an insert with relations, valid for the lifetime of a transaction
type inserter struct {
	anime      *sql.Stmt
	genre      *sql.Stmt
	animeGenre *sql.Stmt
	review     *sql.Stmt
	genreIDs   map[string]int64
}

func newInserter(ctx context.Context, tx *sql.Tx) (*inserter, error) {
	ins := &inserter{genreIDs: map[string]int64{}}
	var err error

	if ins.anime, err = tx.PrepareContext(ctx, insertAnime); err != nil {
		return nil, errors.Wrap(err, "prepare anime insert")
	}
	if ins.genre, err = tx.PrepareContext(ctx, upsertGenre); err != nil {
		return nil, errors.Wrap(err, "prepare genre upsert")
	}
	if ins.animeGenre, err = tx.PrepareContext(ctx, insertAnimeGenre); err != nil {
		return nil, errors.Wrap(err, "prepare anime_genre insert")
	}
	if ins.review, err = tx.PrepareContext(ctx, insertReview); err != nil {
		return nil, errors.Wrap(err, "prepare review insert")
	}
	return ins, nil
}

func (ins *inserter) close() {
	for _, stmt := range []*sql.Stmt{ins.anime, ins.genre, ins.animeGenre, ins.review} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

func (ins *inserter) insert(ctx context.Context, anime catalog.Anime, genres []catalog.Genre, reviews []catalog.Review, now time.Time) (int64, error) {
	var animeID int64
	if err := ins.anime.QueryRowContext(ctx, animeArgs(stamp(anime, now))...).Scan(&animeID); err != nil {
		return 0, errors.Wrap(err, "insert anime")
	}

	for _, g := range genres {
		genreID, ok := ins.genreIDs[g.Name]
		if !ok {
			if err := ins.genre.QueryRowContext(ctx, g.Name, g.Description).Scan(&genreID); err != nil {
				return 0, errors.Wrap(err, "upsert genre")
			}
			ins.genreIDs[g.Name] = genreID
		}
		if _, err := ins.animeGenre.ExecContext(ctx, animeID, genreID); err != nil {
			return 0, errors.Wrap(err, "insert anime_genre")
		}
	}

	for _, rv := range reviews {
		createdAt, updatedAt := rv.CreatedAt, rv.UpdatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if updatedAt.IsZero() {
			updatedAt = now
		}
		if _, err := ins.review.ExecContext(ctx, animeID, rv.UserID, rv.Rating, rv.Content, createdAt, updatedAt); err != nil {
			return 0, errors.Wrap(err, "insert review")
		}
	}

	return animeID, nil
}

func (r *Relational) InsertWithRelations(ctx context.Context, anime catalog.Anime, genres []catalog.Genre, reviews []catalog.Review) (string, error) {
	var id int64

	err := dbutils.InTx(ctx, r.db, func(tx *sql.Tx) error {
		ins, err := newInserter(ctx, tx)
		if err != nil {
			return err
		}
		defer ins.close()

		id, err = ins.insert(ctx, anime, genres, reviews, time.Now())
		return err
	})
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(id, 10), nil
}

func (r *Relational) InsertBatch(ctx context.Context, entities []catalog.Anime) error {
	if len(entities) == 0 {
		return nil
	}

	return dbutils.InTx(ctx, r.db, func(tx *sql.Tx) error {
		ins, err := newInserter(ctx, tx)
		if err != nil {
			return err
		}
		defer ins.close()

		now := time.Now()
		for _, a := range entities {
			if _, err := ins.insert(ctx, a, a.Genres, a.Reviews, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Relational) InsertBatchSimple(ctx context.Context, entities []catalog.Anime) error {
	if len(entities) == 0 {
		return nil
	}

	return dbutils.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if r.driver == "postgres" {
			return copyAnime(ctx, tx, entities)
		}
		return r.insertAnimeChunks(ctx, tx, entities)
	})
}

// Bulk load through COPY FROM STDIN
func copyAnime(ctx context.Context, tx *sql.Tx, entities []catalog.Anime) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("anime", strings.Split(animeColumns, ", ")...))
	if err != nil {
		return errors.Wrap(err, "prepare copy")
	}

	now := time.Now()
	for _, a := range entities {
		if _, err := stmt.ExecContext(ctx, animeArgs(stamp(a, now))...); err != nil {
			stmt.Close()
			return errors.Wrap(err, "copy anime")
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return errors.Wrap(err, "flush copy")
	}
	return errors.Wrap(stmt.Close(), "close copy")
}

// Multi-row inserts of BatchSize rows
func (r *Relational) insertAnimeChunks(ctx context.Context, tx *sql.Tx, entities []catalog.Anime) error {
	const columns = 10
	now := time.Now()

	for start := 0; start < len(entities); start += r.BatchSize {
		end := start + r.BatchSize
		if end > len(entities) {
			end = len(entities)
		}
		chunk := entities[start:end]

		var query strings.Builder
		query.WriteString("insert into anime (" + animeColumns + ") values ")
		args := make([]any, 0, len(chunk)*columns)
		for i, a := range chunk {
			if i > 0 {
				query.WriteString(", ")
			}
			query.WriteString("(")
			for c := 0; c < columns; c++ {
				if c > 0 {
					query.WriteString(", ")
				}
				query.WriteString("$" + strconv.Itoa(i*columns+c+1))
			}
			query.WriteString(")")
			args = append(args, animeArgs(stamp(a, now))...)
		}

		if _, err := tx.ExecContext(ctx, query.String(), args...); err != nil {
			return errors.Wrap(err, "insert anime batch")
		}
	}

	return nil
}

func (r *Relational) UpdateSimple(ctx context.Context, id string, title string) error {
	animeID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid anime id %q", id)
	}

	res, err := r.db.ExecContext(ctx, updateTitle, title, time.Now(), animeID)
	if err != nil {
		return errors.Wrap(err, "update anime")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update anime")
	}
	if n == 0 {
		return errors.Errorf("anime %s not found", id)
	}
	return nil
}

func (r *Relational) DeleteAllWithRelations(ctx context.Context) error {
	return dbutils.InTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, stmt := range deleteAll {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "exec %q", stmt)
			}
		}
		return nil
	})
}

func (r *Relational) TopRated(ctx context.Context, n int) ([]catalog.RatedAnime, error) {
	rows, err := r.db.QueryContext(ctx, selectTopRated, n)
	if err != nil {
		return nil, errors.Wrap(err, "select top rated")
	}
	defer rows.Close()

	result := []catalog.RatedAnime{}
	for rows.Next() {
		var id int64
		var rated catalog.RatedAnime
		if err := rows.Scan(&id, &rated.Title, &rated.AvgRating, &rated.TotalReviews); err != nil {
			return nil, errors.Wrap(err, "scan top rated")
		}
		rated.ID = strconv.FormatInt(id, 10)
		result = append(result, rated)
	}
	return result, errors.Wrap(rows.Err(), "select top rated")
}

func (r *Relational) ExistingUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, selectUsers, r.MaxUsers)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, user)
	}
	return users, errors.Wrap(rows.Err(), "select users")
}

func (r *Relational) GetConfigs() map[string]string {
	return map[string]string{
		"engine":    r.driver,
		"batchSize": strconv.Itoa(r.BatchSize),
	}
}

func (r *Relational) Finalize(ctx context.Context) error {
	return r.db.Close()
}
