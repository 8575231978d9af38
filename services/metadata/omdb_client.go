package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mediashelf/models"
)

// omdbNotAvailable is OMDb's sentinel for fields it has no data for.
const omdbNotAvailable = "N/A"

// omdbClient is the ranked fallback for movie/TV lookups when TMDb has no
// usable result.
type omdbClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type omdbResponse struct {
	Response     string `json:"Response"` // "True" | "False"
	Poster       string `json:"Poster"`
	Year         string `json:"Year"`
	IMDBRating   string `json:"imdbRating"`
	TotalSeasons string `json:"totalSeasons"`
	Genre        string `json:"Genre"`
	Actors       string `json:"Actors"`
	Plot         string `json:"Plot"`
}

func newOMDBClient(apiKey, baseURL string, httpClient *http.Client) *omdbClient {
	return &omdbClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *omdbClient) Name() string { return "omdb" }

func (c *omdbClient) Lookup(ctx context.Context, title string, category models.Category) (*models.Metadata, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	lookupType := "movie"
	if category == models.CategorySeries {
		lookupType = "series"
	}

	lookupURL := fmt.Sprintf("%s/?apikey=%s&t=%s&type=%s&plot=full",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(title), lookupType)

	var result omdbResponse
	if err := getJSON(ctx, c.httpClient, lookupURL, &result); err != nil {
		return nil, fmt.Errorf("omdb lookup: %w", err)
	}
	if result.Response != "True" {
		return nil, nil
	}

	meta := &models.Metadata{
		PosterURL: omdbField(result.Poster),
		Year:      omdbField(result.Year),
		Genre:     omdbField(result.Genre),
		Actors:    omdbField(result.Actors),
		Plot:      omdbField(result.Plot),
	}
	if rating := omdbField(result.IMDBRating); rating != "" {
		if parsed, err := strconv.ParseFloat(rating, 64); err == nil {
			meta.Rating = parsed
		}
	}
	if seasons := omdbField(result.TotalSeasons); seasons != "" {
		if parsed, err := strconv.Atoi(seasons); err == nil {
			meta.TotalSeasons = parsed
		}
	}
	return meta, nil
}

// omdbField maps OMDb's "N/A" sentinel to an empty string.
func omdbField(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == omdbNotAvailable {
		return ""
	}
	return trimmed
}
