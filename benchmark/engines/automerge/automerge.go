// Package automerge_engine stores every catalog entry as a saved Automerge document (a CRDT) in
// a SQLite table, with its genres and reviews embedded as lists.
package automerge_engine

import (
	"context"
	"crudbench/catalog"
	dbutils "crudbench/dbUtils"
	"database/sql"
	"strconv"
	"time"

	"github.com/automerge/automerge-go"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	createDocuments = `
		create table if not exists documents (
			id varchar primary key,
			object blob not null
		)`
	insertDocument = "insert into documents (id, object) values ($1, $2)"
	updateDocument = "update documents set object = $1 where id = $2"
	selectDocument = "select object from documents where id = $1"
	selectLimited  = "select id, object from documents order by rowid limit $1"
	selectAll      = "select id, object from documents order by rowid"
	deleteAll      = "delete from documents"
)

type Automerge struct {
	db *sql.DB
	// Use write-ahead logging with synchronous=NORMAL instead of the rollback journal
	Wal bool `yaml:"wal"`
	// Drop the documents table during setup
	Reset bool `yaml:"reset"`
	// Upper bound of the reviewer ids read by ExistingUsers
	MaxUsers int `yaml:"maxUsers"`
}

// Creates the engine over an open SQLite database. configData holds the optional engine keys of
// the target.
func New(db *sql.DB, configData []byte) (*Automerge, error) {
	a := Automerge{MaxUsers: 1000}
	if len(configData) > 0 {
		if err := yaml.Unmarshal(configData, &a); err != nil {
			return nil, errors.Wrap(err, "decode automerge config")
		}
	}
	a.db = db
	return &a, nil
}

func (a *Automerge) Setup(ctx context.Context) error {
	if a.Reset {
		if err := dbutils.ExecAll(ctx, a.db, "drop table if exists documents"); err != nil {
			return err
		}
	}
	if a.Wal {
		if err := dbutils.ExecAll(ctx, a.db, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"); err != nil {
			return err
		}
	}
	return errors.Wrap(dbutils.ExecAll(ctx, a.db, createDocuments), "create documents table")
}

func (a *Automerge) load(ctx context.Context, query string, relations bool, args ...any) ([]catalog.Anime, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select documents")
	}
	defer rows.Close()

	result := []catalog.Anime{}
	for rows.Next() {
		var id string
		var object []byte
		if err := rows.Scan(&id, &object); err != nil {
			return nil, errors.Wrap(err, "scan document")
		}
		entry, err := decode(id, object, relations)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, errors.Wrap(rows.Err(), "select documents")
}

func (a *Automerge) FetchSimple(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return a.load(ctx, selectLimited, false, limit)
}

func (a *Automerge) FetchWithRelations(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return a.load(ctx, selectLimited, true, limit)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, entry catalog.Anime) (string, error) {
	object, err := newDocument(entry)
	if err != nil {
		return "", errors.Wrap(err, "build document")
	}

	id := uuid.NewString()
	if _, err := db.ExecContext(ctx, insertDocument, id, object); err != nil {
		return "", errors.Wrap(err, "insert document")
	}
	return id, nil
}

func (a *Automerge) InsertSimple(ctx context.Context, anime catalog.Anime) (string, error) {
	return insert(ctx, a.db, anime.Simple())
}

func (a *Automerge) InsertWithRelations(ctx context.Context, anime catalog.Anime, genres []catalog.Genre, reviews []catalog.Review) (string, error) {
	anime.Genres = genres
	anime.Reviews = reviews
	return insert(ctx, a.db, anime)
}

func (a *Automerge) insertAll(ctx context.Context, entities []catalog.Anime) error {
	if len(entities) == 0 {
		return nil
	}

	return dbutils.InTx(ctx, a.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertDocument)
		if err != nil {
			return errors.Wrap(err, "prepare document insert")
		}
		defer stmt.Close()

		for _, entry := range entities {
			object, err := newDocument(entry)
			if err != nil {
				return errors.Wrap(err, "build document")
			}
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), object); err != nil {
				return errors.Wrap(err, "insert document")
			}
		}
		return nil
	})
}

func (a *Automerge) InsertBatch(ctx context.Context, entities []catalog.Anime) error {
	return a.insertAll(ctx, entities)
}

func (a *Automerge) InsertBatchSimple(ctx context.Context, entities []catalog.Anime) error {
	simple := make([]catalog.Anime, len(entities))
	for i, entry := range entities {
		simple[i] = entry.Simple()
	}
	return a.insertAll(ctx, simple)
}

// Applies the change to the stored document, so its history keeps the previous title
func (a *Automerge) UpdateSimple(ctx context.Context, id string, title string) error {
	return dbutils.InTx(ctx, a.db, func(tx *sql.Tx) error {
		var object []byte
		err := tx.QueryRowContext(ctx, selectDocument, id).Scan(&object)
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Errorf("anime %s not found", id)
		}
		if err != nil {
			return errors.Wrap(err, "select document")
		}

		doc, err := automerge.Load(object)
		if err != nil {
			return errors.Wrapf(err, "load document %s", id)
		}
		if err := doc.Path("title").Set(title); err != nil {
			return errors.Wrap(err, "set title")
		}
		if err := doc.Path("updated_at").Set(millis(time.Now())); err != nil {
			return errors.Wrap(err, "set updated_at")
		}

		_, err = tx.ExecContext(ctx, updateDocument, doc.Save(), id)
		return errors.Wrap(err, "update document")
	})
}

func (a *Automerge) DeleteAllWithRelations(ctx context.Context) error {
	return dbutils.ExecAll(ctx, a.db, deleteAll)
}

// Documents are opaque to SQLite, so the ratings are computed over every document
func (a *Automerge) TopRated(ctx context.Context, n int) ([]catalog.RatedAnime, error) {
	entries, err := a.load(ctx, selectAll, true)
	if err != nil {
		return nil, err
	}

	rated := []catalog.RatedAnime{}
	for _, entry := range entries {
		if r, ok := catalog.Rate(entry); ok {
			rated = append(rated, r)
		}
	}
	return catalog.Top(rated, n), nil
}

func (a *Automerge) ExistingUsers(ctx context.Context) ([]string, error) {
	entries, err := a.load(ctx, selectAll, true)
	if err != nil {
		return nil, err
	}

	users := catalog.Reviewers(entries)
	if len(users) > a.MaxUsers {
		users = users[:a.MaxUsers]
	}
	return users, nil
}

func (a *Automerge) GetConfigs() map[string]string {
	return map[string]string{
		"engine": "automerge",
		"wal":    strconv.FormatBool(a.Wal),
	}
}

func (a *Automerge) Finalize(ctx context.Context) error {
	return a.db.Close()
}
