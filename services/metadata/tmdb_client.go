package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mediashelf/models"
)

const tmdbPosterBaseURL = "https://image.tmdb.org/t/p/w500"

// tmdbClient is the primary movie/TV provider. It does a search call for the
// first matching result, then a details call for genres, seasons and the
// overview text.
type tmdbClient struct {
	apiKey     string
	baseURL    string
	posterBase string
	httpClient *http.Client
}

type tmdbSearchResponse struct {
	Results []struct {
		ID           int64   `json:"id"`
		PosterPath   string  `json:"poster_path"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
		VoteAverage  float64 `json:"vote_average"`
	} `json:"results"`
}

type tmdbDetailsResponse struct {
	NumberOfSeasons int `json:"number_of_seasons"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Overview string `json:"overview"`
}

func newTMDBClient(apiKey, baseURL string, httpClient *http.Client) *tmdbClient {
	return &tmdbClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		posterBase: tmdbPosterBaseURL,
		httpClient: httpClient,
	}
}

func (c *tmdbClient) Name() string { return "tmdb" }

func (c *tmdbClient) Lookup(ctx context.Context, title string, category models.Category) (*models.Metadata, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	searchType := "movie"
	if category == models.CategorySeries {
		searchType = "tv"
	}

	searchURL := fmt.Sprintf("%s/search/%s?api_key=%s&query=%s",
		c.baseURL, searchType, url.QueryEscape(c.apiKey), url.QueryEscape(title))

	var search tmdbSearchResponse
	if err := getJSON(ctx, c.httpClient, searchURL, &search); err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}
	if len(search.Results) == 0 {
		return nil, nil
	}

	// First result wins; TMDb already orders by relevance.
	hit := search.Results[0]

	detailsURL := fmt.Sprintf("%s/%s/%d?api_key=%s",
		c.baseURL, searchType, hit.ID, url.QueryEscape(c.apiKey))

	var details tmdbDetailsResponse
	if err := getJSON(ctx, c.httpClient, detailsURL, &details); err != nil {
		return nil, fmt.Errorf("tmdb details: %w", err)
	}

	meta := &models.Metadata{
		Year:   releaseYear(hit.ReleaseDate, hit.FirstAirDate),
		Rating: hit.VoteAverage,
		Genre:  joinGenreNames(len(details.Genres), func(i int) string { return details.Genres[i].Name }),
		Plot:   details.Overview,
	}
	if hit.PosterPath != "" {
		meta.PosterURL = c.posterBase + hit.PosterPath
	}
	if searchType == "tv" {
		meta.TotalSeasons = details.NumberOfSeasons
	}
	return meta, nil
}

// releaseYear extracts the 4-digit year from the first non-empty date.
func releaseYear(dates ...string) string {
	for _, d := range dates {
		if len(d) >= 4 {
			return d[:4]
		}
	}
	return ""
}

func joinGenreNames(n int, name func(int) string) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if g := strings.TrimSpace(name(i)); g != "" {
			parts = append(parts, g)
		}
	}
	return strings.Join(parts, ", ")
}
