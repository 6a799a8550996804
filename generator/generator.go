// Package generator produces random catalog entries for the benchmark.
package generator

import (
	"context"
	"crudbench/catalog"
	"crudbench/util"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// Reviewer id used when the store does not know any user yet
const DefaultUser = "default_user"

// Source of the reviewer ids referenced by generated reviews
type UserSource interface {
	ExistingUsers(ctx context.Context) ([]string, error)
}

type Generator struct {
	rand  *rand.Rand
	users UserSource
	now   func() time.Time
}

// Creates a generator. A zero seed uses the current time.
func New(seed int64, users UserSource) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rand:  rand.New(rand.NewSource(seed)),
		users: users,
		now:   time.Now,
	}
}

// Generates n entries, each with 1-5 genres and 1-10 reviews
func (g *Generator) Generate(ctx context.Context, n int) ([]catalog.Anime, error) {
	users, err := g.users.ExistingUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch existing users")
	}
	if len(users) == 0 {
		users = []string{DefaultUser}
	}

	entities := make([]catalog.Anime, 0, n)
	for i := 0; i < n; i++ {
		entities = append(entities, g.anime(users))
	}
	return entities, nil
}

func (g *Generator) daysAgo(max int) time.Time {
	return g.now().Add(-time.Duration(g.rand.Intn(max+1)) * 24 * time.Hour)
}

func (g *Generator) anime(users []string) catalog.Anime {
	r := g.rand

	genres := make([]catalog.Genre, util.RandomBetween(r, 1, 5))
	for i := range genres {
		genres[i] = catalog.Genre{
			Name:        util.RandomString(r, util.RandomBetween(r, 5, 10)),
			Description: util.RandomString(r, util.RandomBetween(r, 20, 50)),
		}
	}

	reviews := make([]catalog.Review, util.RandomBetween(r, 1, 10))
	for i := range reviews {
		reviews[i] = catalog.Review{
			UserID:    util.Choice(r, users),
			Rating:    util.RandomBetween(r, 1, 10),
			Content:   util.RandomWords(r, util.RandomBetween(r, 20, 100), 1, 1, " "),
			CreatedAt: g.daysAgo(365),
			UpdatedAt: g.daysAgo(30),
		}
	}

	synopsis := make([]byte, 0, 256)
	for i, lines := 0, util.RandomBetween(r, 1, 5); i < lines; i++ {
		if i > 0 {
			synopsis = append(synopsis, '\n')
		}
		synopsis = append(synopsis, util.RandomWords(r, util.RandomBetween(r, 10, 50), 1, 1, " ")...)
	}

	return catalog.Anime{
		Title:         util.RandomString(r, util.RandomBetween(r, 5, 20)),
		OriginalTitle: util.RandomString(r, util.RandomBetween(r, 5, 20)),
		Year:          util.RandomBetween(r, 1900, 2024),
		Synopsis:      string(synopsis),
		Episodes:      util.RandomBetween(r, 1, 100),
		Duration:      util.RandomBetween(r, 10, 120),
		IsDeleted:     r.Intn(2) == 1,
		CreatedAt:     g.daysAgo(365),
		UpdatedAt:     g.daysAgo(30),
		UpdatedBy:     util.Choice(r, users),
		Genres:        genres,
		Reviews:       reviews,
	}
}
