// Package memory is an in-process engine that keeps the entries in a map. It has no network or
// disk cost, so it is used as a baseline and for dry runs of a benchmark configuration.
package memory

import (
	"context"
	"crudbench/catalog"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

type Memory struct {
	lock    sync.Mutex
	nextID  int
	order   []string
	entries map[string]catalog.Anime
}

func New() *Memory {
	return &Memory{entries: map[string]catalog.Anime{}}
}

func (m *Memory) Setup(ctx context.Context) error {
	return nil
}

func (m *Memory) fetch(limit int, relations bool) []catalog.Anime {
	m.lock.Lock()
	defer m.lock.Unlock()

	result := []catalog.Anime{}
	for _, id := range m.order {
		if len(result) >= limit {
			break
		}
		a := m.entries[id]
		if !relations {
			a = a.Simple()
		}
		result = append(result, a)
	}
	return result
}

func (m *Memory) FetchSimple(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return m.fetch(limit, false), nil
}

func (m *Memory) FetchWithRelations(ctx context.Context, limit int) ([]catalog.Anime, error) {
	return m.fetch(limit, true), nil
}

func (m *Memory) insert(anime catalog.Anime) string {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.nextID++
	anime.ID = strconv.Itoa(m.nextID)
	m.entries[anime.ID] = anime
	m.order = append(m.order, anime.ID)
	return anime.ID
}

func (m *Memory) InsertSimple(ctx context.Context, anime catalog.Anime) (string, error) {
	return m.insert(anime.Simple()), nil
}

func (m *Memory) InsertWithRelations(ctx context.Context, anime catalog.Anime, genres []catalog.Genre, reviews []catalog.Review) (string, error) {
	anime.Genres = genres
	anime.Reviews = reviews
	return m.insert(anime), nil
}

func (m *Memory) InsertBatch(ctx context.Context, entities []catalog.Anime) error {
	for _, a := range entities {
		m.insert(a)
	}
	return nil
}

func (m *Memory) InsertBatchSimple(ctx context.Context, entities []catalog.Anime) error {
	for _, a := range entities {
		m.insert(a.Simple())
	}
	return nil
}

func (m *Memory) UpdateSimple(ctx context.Context, id string, title string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	a, ok := m.entries[id]
	if !ok {
		return errors.Errorf("anime %s not found", id)
	}
	a.Title = title
	m.entries[id] = a
	return nil
}

func (m *Memory) DeleteAllWithRelations(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.entries = map[string]catalog.Anime{}
	m.order = nil
	return nil
}

func (m *Memory) TopRated(ctx context.Context, n int) ([]catalog.RatedAnime, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rated := []catalog.RatedAnime{}
	for _, id := range m.order {
		if r, ok := catalog.Rate(m.entries[id]); ok {
			rated = append(rated, r)
		}
	}
	return catalog.Top(rated, n), nil
}

func (m *Memory) ExistingUsers(ctx context.Context) ([]string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	entries := make([]catalog.Anime, 0, len(m.order))
	for _, id := range m.order {
		entries = append(entries, m.entries[id])
	}
	return catalog.Reviewers(entries), nil
}

func (m *Memory) GetConfigs() map[string]string {
	return map[string]string{"engine": "memory"}
}

func (m *Memory) Finalize(ctx context.Context) error {
	return nil
}
