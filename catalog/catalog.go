// Package catalog holds the synthetic media catalog entities that the engines store.
package catalog

import (
	"sort"
	"time"
)

type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Review struct {
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Anime is a catalog entry. Genres and Reviews are the nested relations; the "simple" variants
// of the operations ignore them.
type Anime struct {
	ID            string    `json:"id,omitempty"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title"`
	Year          int       `json:"year"`
	Synopsis      string    `json:"synopsis"`
	Episodes      int       `json:"episodes"`
	Duration      int       `json:"duration"`
	IsDeleted     bool      `json:"is_deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UpdatedBy     string    `json:"updated_by"`
	Genres        []Genre   `json:"genres"`
	Reviews       []Review  `json:"reviews"`
}

// Returns a copy of the entry without its relations
func (a Anime) Simple() Anime {
	a.Genres = nil
	a.Reviews = nil
	return a
}

// An entry together with its average review rating
type RatedAnime struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	AvgRating    float64 `json:"avg_rating"`
	TotalReviews int     `json:"total_reviews"`
}

// Returns the average rating of an entry; false when it has no reviews
func Rate(a Anime) (RatedAnime, bool) {
	if len(a.Reviews) == 0 {
		return RatedAnime{}, false
	}

	total := 0
	for _, r := range a.Reviews {
		total += r.Rating
	}

	return RatedAnime{
		ID:           a.ID,
		Title:        a.Title,
		AvgRating:    float64(total) / float64(len(a.Reviews)),
		TotalReviews: len(a.Reviews),
	}, true
}

// Sorts by descending average rating and keeps the first n
func Top(rated []RatedAnime, n int) []RatedAnime {
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].AvgRating > rated[j].AvgRating
	})
	if len(rated) > n {
		rated = rated[:n]
	}
	return rated
}

// Returns the distinct reviewer ids of the entries, in order of first appearance
func Reviewers(entries []Anime) []string {
	seen := map[string]bool{}
	users := []string{}
	for _, a := range entries {
		for _, r := range a.Reviews {
			if !seen[r.UserID] {
				seen[r.UserID] = true
				users = append(users, r.UserID)
			}
		}
	}
	return users
}
