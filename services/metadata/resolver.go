package metadata

import (
	"context"
	"log"
	"net/http"
	"time"

	"mediashelf/config"
	"mediashelf/models"
)

// provider is one lookup strategy. Implementations return (nil, nil) when the
// provider has no usable result for the title.
type provider interface {
	Lookup(ctx context.Context, title string, category models.Category) (*models.Metadata, error)
	Name() string
}

// Resolver dispatches a title lookup to the provider chain for its category
// and normalizes the result. Its contract is total: network failures,
// non-2xx responses, malformed payloads, and timeouts all surface as a nil
// result, never as an error.
type Resolver struct {
	movieTV []provider // ranked, first hit wins
	games   provider
	anime   provider
	timeout time.Duration
}

// NewResolver builds the resolver from provider settings. Providers without
// an API key stay configured but answer every lookup with no result.
func NewResolver(settings config.MetadataSettings) *Resolver {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	return &Resolver{
		movieTV: []provider{
			newTMDBClient(settings.TMDBAPIKey, settings.TMDBBaseURL, httpClient),
			newOMDBClient(settings.OMDBAPIKey, settings.OMDBBaseURL, httpClient),
		},
		games:   newRAWGClient(settings.RAWGAPIKey, settings.RAWGBaseURL, httpClient),
		anime:   newJikanClient(settings.JikanBaseURL, httpClient),
		timeout: time.Duration(settings.TimeoutSeconds) * time.Second,
	}
}

// Fetch looks the title up with the providers mapped to the category. Exactly
// one category-to-provider mapping is active per call; results are never
// merged across providers. Returns nil when nothing usable was found.
func (r *Resolver) Fetch(ctx context.Context, title string, category models.Category) *models.Metadata {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	switch category {
	case models.CategoryMovie, models.CategorySeries:
		for _, p := range r.movieTV {
			if meta := r.lookup(ctx, p, title, category); meta != nil {
				return meta
			}
		}
		return nil
	case models.CategoryGame:
		return r.lookup(ctx, r.games, title, category)
	case models.CategoryAnime:
		return r.lookup(ctx, r.anime, title, category)
	default:
		log.Printf("[metadata] no provider mapping for category %q", category)
		return nil
	}
}

func (r *Resolver) lookup(ctx context.Context, p provider, title string, category models.Category) *models.Metadata {
	if p == nil {
		return nil
	}
	meta, err := p.Lookup(ctx, title, category)
	if err != nil {
		log.Printf("[metadata] %s lookup failed for %q: %v", p.Name(), title, err)
		return nil
	}
	if meta == nil {
		log.Printf("[metadata] %s has no result for %q", p.Name(), title)
		return nil
	}
	log.Printf("[metadata] %s resolved %q year=%s", p.Name(), title, meta.Year)
	return meta
}
