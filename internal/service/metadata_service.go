package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shred03/filestore-bot/internal/config"
	apperrors "github.com/shred03/filestore-bot/internal/pkg/errors"
)

// MovieSearchItem is one hit of a TMDB title search.
type MovieSearchItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type movieSearchResponse struct {
	Results []MovieSearchItem `json:"results"`
}

// MovieDetails is the detail payload used to build a channel post.
type MovieDetails struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Runtime      int     `json:"runtime"`
	VoteAverage  float64 `json:"vote_average"`
	PosterPath   string  `json:"poster_path"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	NumberOfSeasons  int `json:"number_of_seasons"`
	NumberOfEpisodes int `json:"number_of_episodes"`
}

// MetadataService queries the TMDB API for movie/TV details and renders the
// formatted post captions.
type MetadataService struct {
	cfg        config.MetadataConfig
	httpClient *http.Client
}

// NewMetadataService создает новый сервис метаданных
func NewMetadataService(cfg config.MetadataConfig) (*MetadataService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.themoviedb.org/3"
	}
	return &MetadataService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *MetadataService) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	params.Set("api_key", s.cfg.APIKey)
	params.Set("language", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// SearchMovie returns the title search results for a movie query.
func (s *MetadataService) SearchMovie(ctx context.Context, query string) ([]MovieSearchItem, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")

	var resp movieSearchResponse
	if err := s.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchTV returns the title search results for a TV query.
func (s *MetadataService) SearchTV(ctx context.Context, query string) ([]MovieSearchItem, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")

	var resp movieSearchResponse
	if err := s.get(ctx, "/search/tv", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// MovieDetails fetches the full detail document for a movie id.
func (s *MetadataService) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := s.get(ctx, fmt.Sprintf("/movie/%d", id), url.Values{}, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &details, nil
}

// TVDetails fetches the full detail document for a TV show id.
func (s *MetadataService) TVDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := s.get(ctx, fmt.Sprintf("/tv/%d", id), url.Values{}, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &details, nil
}

// PosterURL returns the full image URL for the details' poster, or empty.
func (d *MovieDetails) PosterURL() string {
	if d.PosterPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w500" + d.PosterPath
}

// DisplayTitle returns the movie title or TV name, whichever is set.
func (d *MovieDetails) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// ReleaseYear extracts the year from whichever release date is present.
func (d *MovieDetails) ReleaseYear() string {
	date := d.ReleaseDate
	if date == "" {
		date = d.FirstAirDate
	}
	if len(date) < 4 {
		return "N/A"
	}
	return date[:4]
}

// GenreLine joins the genre names for display.
func (d *MovieDetails) GenreLine() string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	if len(names) == 0 {
		return "N/A"
	}
	return strings.Join(names, ", ")
}

// BuildMovieCaption renders the channel post caption for a movie.
func (s *MetadataService) BuildMovieCaption(d *MovieDetails) string {
	overview := d.Overview
	if overview == "" {
		overview = "No synopsis available"
	}
	runtime := "N/A"
	if d.Runtime > 0 {
		runtime = fmt.Sprintf("%d min", d.Runtime)
	}
	return fmt.Sprintf(
		"🎬 *%s* (%s)\n\n⭐ Rating: %.1f/10\n🎭 Genre: %s\n⏱ Runtime: %s\n\n📖 *Synopsis:*\n%s",
		d.DisplayTitle(), d.ReleaseYear(), d.VoteAverage, d.GenreLine(), runtime, overview,
	)
}

// BuildTVCaption renders the channel post caption for a TV show.
func (s *MetadataService) BuildTVCaption(d *MovieDetails) string {
	overview := d.Overview
	if overview == "" {
		overview = "No synopsis available"
	}
	return fmt.Sprintf(
		"📺 *%s* (%s)\n\n⭐ Rating: %.1f/10\n🎭 Genre: %s\n🗂 Seasons: %d | Episodes: %d\n\n📖 *Synopsis:*\n%s",
		d.DisplayTitle(), d.ReleaseYear(), d.VoteAverage, d.GenreLine(),
		d.NumberOfSeasons, d.NumberOfEpisodes, overview,
	)
}
