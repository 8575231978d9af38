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

// jikanClient resolves anime titles through the keyless Jikan v4 API.
type jikanClient struct {
	baseURL    string
	httpClient *http.Client
}

type jikanSearchResponse struct {
	Data []struct {
		Images struct {
			JPG struct {
				LargeImageURL string `json:"large_image_url"`
			} `json:"jpg"`
		} `json:"images"`
		Aired struct {
			Prop struct {
				From struct {
					Year int `json:"year"`
				} `json:"from"`
			} `json:"prop"`
		} `json:"aired"`
		Score  float64 `json:"score"`
		Genres []struct {
			Name string `json:"name"`
		} `json:"genres"`
		Synopsis string `json:"synopsis"`
	} `json:"data"`
}

func newJikanClient(baseURL string, httpClient *http.Client) *jikanClient {
	return &jikanClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *jikanClient) Name() string { return "jikan" }

func (c *jikanClient) Lookup(ctx context.Context, title string, _ models.Category) (*models.Metadata, error) {
	searchURL := fmt.Sprintf("%s/anime?q=%s&limit=1", c.baseURL, url.QueryEscape(title))

	var search jikanSearchResponse
	if err := getJSON(ctx, c.httpClient, searchURL, &search); err != nil {
		return nil, fmt.Errorf("jikan search: %w", err)
	}
	if len(search.Data) == 0 {
		return nil, nil
	}

	anime := search.Data[0]
	meta := &models.Metadata{
		PosterURL: anime.Images.JPG.LargeImageURL,
		Rating:    anime.Score,
		Genre:     joinGenreNames(len(anime.Genres), func(i int) string { return anime.Genres[i].Name }),
		Plot:      anime.Synopsis,
	}
	if anime.Aired.Prop.From.Year > 0 {
		meta.Year = strconv.Itoa(anime.Aired.Prop.From.Year)
	}
	return meta, nil
}
