package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mediashelf/models"
)

// rawgClient resolves game titles. RAWG has no synopsis field, so Plot is
// always empty for games.
type rawgClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type rawgSearchResponse struct {
	Results []struct {
		BackgroundImage string  `json:"background_image"`
		Released        string  `json:"released"`
		Rating          float64 `json:"rating"`
		Genres          []struct {
			Name string `json:"name"`
		} `json:"genres"`
	} `json:"results"`
}

func newRAWGClient(apiKey, baseURL string, httpClient *http.Client) *rawgClient {
	return &rawgClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *rawgClient) Name() string { return "rawg" }

func (c *rawgClient) Lookup(ctx context.Context, title string, _ models.Category) (*models.Metadata, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	searchURL := fmt.Sprintf("%s/games?search=%s&key=%s",
		c.baseURL, url.QueryEscape(title), url.QueryEscape(c.apiKey))

	var search rawgSearchResponse
	if err := getJSON(ctx, c.httpClient, searchURL, &search); err != nil {
		return nil, fmt.Errorf("rawg search: %w", err)
	}
	if len(search.Results) == 0 {
		return nil, nil
	}

	game := search.Results[0]
	return &models.Metadata{
		PosterURL: game.BackgroundImage,
		Year:      releaseYear(game.Released),
		Rating:    game.Rating,
		Genre:     joinGenreNames(len(game.Genres), func(i int) string { return game.Genres[i].Name }),
	}, nil
}
