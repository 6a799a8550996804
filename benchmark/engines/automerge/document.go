package automerge_engine

import (
	"crudbench/catalog"
	"time"

	"github.com/automerge/automerge-go"
	"github.com/pkg/errors"
)

// Layout of the relations inside a document. Integers are int64 and times are unix milliseconds,
// the representations automerge keeps without conversion.
type genreDoc struct {
	Name        string `automerge:"name"`
	Description string `automerge:"description"`
}

type reviewDoc struct {
	UserID    string `automerge:"user_id"`
	Rating    int64  `automerge:"rating"`
	Content   string `automerge:"content"`
	CreatedAt int64  `automerge:"created_at"`
	UpdatedAt int64  `automerge:"updated_at"`
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Builds the document of an entry; nil relations are stored as empty lists
func newDocument(a catalog.Anime) ([]byte, error) {
	doc := automerge.New()
	root := doc.RootMap()

	scalars := []struct {
		key   string
		value any
	}{
		{"title", a.Title},
		{"original_title", a.OriginalTitle},
		{"year", int64(a.Year)},
		{"synopsis", a.Synopsis},
		{"episodes", int64(a.Episodes)},
		{"duration", int64(a.Duration)},
		{"is_deleted", a.IsDeleted},
		{"created_at", millis(a.CreatedAt)},
		{"updated_at", millis(a.UpdatedAt)},
		{"updated_by", a.UpdatedBy},
	}
	for _, s := range scalars {
		if err := root.Set(s.key, s.value); err != nil {
			return nil, errors.Wrapf(err, "set %s", s.key)
		}
	}

	genres := make([]genreDoc, len(a.Genres))
	for i, g := range a.Genres {
		genres[i] = genreDoc{Name: g.Name, Description: g.Description}
	}
	if err := doc.Path("genres").Set(genres); err != nil {
		return nil, errors.Wrap(err, "set genres")
	}

	reviews := make([]reviewDoc, len(a.Reviews))
	for i, r := range a.Reviews {
		reviews[i] = reviewDoc{
			UserID:    r.UserID,
			Rating:    int64(r.Rating),
			Content:   r.Content,
			CreatedAt: millis(r.CreatedAt),
			UpdatedAt: millis(r.UpdatedAt),
		}
	}
	if err := doc.Path("reviews").Set(reviews); err != nil {
		return nil, errors.Wrap(err, "set reviews")
	}

	return doc.Save(), nil
}

// Reads the scalar fields of a document, leaving the relations lists untouched
func readAnime(doc *automerge.Doc) (catalog.Anime, error) {
	var a catalog.Anime
	var err error
	var year, episodes, duration, createdAt, updatedAt int64

	str := func(key string, dst *string) {
		if err == nil {
			*dst, err = automerge.As[string](doc.Path(key).Get())
			err = errors.Wrap(err, key)
		}
	}
	num := func(key string, dst *int64) {
		if err == nil {
			*dst, err = automerge.As[int64](doc.Path(key).Get())
			err = errors.Wrap(err, key)
		}
	}

	str("title", &a.Title)
	str("original_title", &a.OriginalTitle)
	str("synopsis", &a.Synopsis)
	str("updated_by", &a.UpdatedBy)
	num("year", &year)
	num("episodes", &episodes)
	num("duration", &duration)
	num("created_at", &createdAt)
	num("updated_at", &updatedAt)
	if err == nil {
		a.IsDeleted, err = automerge.As[bool](doc.Path("is_deleted").Get())
		err = errors.Wrap(err, "is_deleted")
	}
	if err != nil {
		return a, err
	}

	a.Year = int(year)
	a.Episodes = int(episodes)
	a.Duration = int(duration)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

func readGenres(doc *automerge.Doc) ([]catalog.Genre, error) {
	docs, err := automerge.As[[]genreDoc](doc.Path("genres").Get())
	if err != nil {
		return nil, errors.Wrap(err, "genres")
	}

	genres := make([]catalog.Genre, len(docs))
	for i, g := range docs {
		genres[i] = catalog.Genre{Name: g.Name, Description: g.Description}
	}
	return genres, nil
}

func readReviews(doc *automerge.Doc) ([]catalog.Review, error) {
	docs, err := automerge.As[[]reviewDoc](doc.Path("reviews").Get())
	if err != nil {
		return nil, errors.Wrap(err, "reviews")
	}

	reviews := make([]catalog.Review, len(docs))
	for i, r := range docs {
		reviews[i] = catalog.Review{
			UserID:    r.UserID,
			Rating:    int(r.Rating),
			Content:   r.Content,
			CreatedAt: fromMillis(r.CreatedAt),
			UpdatedAt: fromMillis(r.UpdatedAt),
		}
	}
	return reviews, nil
}

// Decodes a saved document into an entry with id, with or without its relations
func decode(id string, object []byte, relations bool) (catalog.Anime, error) {
	doc, err := automerge.Load(object)
	if err != nil {
		return catalog.Anime{}, errors.Wrapf(err, "load document %s", id)
	}

	a, err := readAnime(doc)
	if err != nil {
		return a, errors.Wrapf(err, "read document %s", id)
	}
	a.ID = id

	if relations {
		if a.Genres, err = readGenres(doc); err != nil {
			return a, errors.Wrapf(err, "read document %s", id)
		}
		if a.Reviews, err = readReviews(doc); err != nil {
			return a, errors.Wrapf(err, "read document %s", id)
		}
	}
	return a, nil
}
