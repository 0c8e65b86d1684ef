package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shred03/filestore-bot/internal/config"
)

func newMetadataServer(t *testing.T, routes map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.NotEmpty(t, r.URL.Query().Get("api_key"))
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func TestSearchMovie_ReturnsResults(t *testing.T) {
	srv := newMetadataServer(t, map[string]interface{}{
		"/search/movie": map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": 693134, "title": "Dune: Part Two", "release_date": "2024-02-27", "vote_average": 8.2},
			},
		},
	})
	defer srv.Close()

	svc, err := NewMetadataService(config.MetadataConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	hits, err := svc.SearchMovie(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 693134, hits[0].ID)
	assert.Equal(t, "Dune: Part Two", hits[0].Title)
}

func TestMovieDetails_BuildsCaption(t *testing.T) {
	srv := newMetadataServer(t, map[string]interface{}{
		"/movie/693134": map[string]interface{}{
			"id":           693134,
			"title":        "Dune: Part Two",
			"overview":     "Paul Atreides unites with Chani.",
			"release_date": "2024-02-27",
			"runtime":      166,
			"vote_average": 8.2,
			"poster_path":  "/abc.jpg",
			"genres":       []map[string]string{{"name": "Science Fiction"}, {"name": "Adventure"}},
		},
	})
	defer srv.Close()

	svc, err := NewMetadataService(config.MetadataConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	details, err := svc.MovieDetails(context.Background(), 693134)
	require.NoError(t, err)

	assert.Equal(t, "Dune: Part Two", details.DisplayTitle())
	assert.Equal(t, "2024", details.ReleaseYear())
	assert.Equal(t, "Science Fiction, Adventure", details.GenreLine())
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", details.PosterURL())

	caption := svc.BuildMovieCaption(details)
	assert.Contains(t, caption, "Dune: Part Two")
	assert.Contains(t, caption, "166 min")
	assert.Contains(t, caption, "Science Fiction, Adventure")
}

func TestMetadataDetails_MissingFields(t *testing.T) {
	details := &MovieDetails{ID: 1, Name: "Some Show"}

	assert.Equal(t, "Some Show", details.DisplayTitle())
	assert.Equal(t, "N/A", details.ReleaseYear())
	assert.Equal(t, "N/A", details.GenreLine())
	assert.Empty(t, details.PosterURL())
}

func TestNewMetadataService_RequiresKey(t *testing.T) {
	_, err := NewMetadataService(config.MetadataConfig{})
	assert.Error(t, err)
}
