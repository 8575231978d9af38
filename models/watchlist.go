package models

import "time"

// Category classifies a watchlist item. Exactly one category applies to an
// item at a time; it can change via edit.
type Category string

const (
	CategoryMovie  Category = "movie"
	CategorySeries Category = "series"
	CategoryAnime  Category = "anime"
	CategoryGame   Category = "game"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{CategoryMovie, CategorySeries, CategoryAnime, CategoryGame}
}

// Valid reports whether the category is one of the fixed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryMovie, CategorySeries, CategoryAnime, CategoryGame:
		return true
	}
	return false
}

// ParseCategory normalizes a user-supplied category label. The second return
// value is false when the label is not part of the fixed set.
func ParseCategory(value string) (Category, bool) {
	c := Category(value)
	if c.Valid() {
		return c, true
	}
	return "", false
}

// WatchlistItem is a single tracked entry. Enrichment fields are best-effort
// and may all be absent; rendering and persistence must tolerate that.
type WatchlistItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	Watched     bool       `json:"watched"`
	CreatedAt   time.Time  `json:"createdAt"`
	WatchedAt   *time.Time `json:"watchedAt,omitempty"`

	// Enrichment fields, sourced from the metadata resolver at add time.
	PosterURL    string  `json:"posterUrl,omitempty"`
	Year         string  `json:"year,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	TotalSeasons int     `json:"totalSeasons,omitempty"`
	Genre        string  `json:"genre,omitempty"`
	Actors       string  `json:"actors,omitempty"`
}

// Metadata is the normalized result of a provider lookup. Rating stays on the
// provider's native scale; Year is the 4-digit display string.
type Metadata struct {
	PosterURL    string  `json:"posterUrl,omitempty"`
	Year         string  `json:"year,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	TotalSeasons int     `json:"totalSeasons,omitempty"`
	Genre        string  `json:"genre,omitempty"`
	Actors       string  `json:"actors,omitempty"`
	Plot         string  `json:"plot,omitempty"`
}
