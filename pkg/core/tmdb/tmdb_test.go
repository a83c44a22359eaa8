package tmdb_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/falkben/media-organizer/pkg/core/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inceptionJSON = `{
	"adult": false,
	"backdrop_path": "/s3TBrRGB1iav7gFOCNx3H31MoES.jpg",
	"belongs_to_collection": null,
	"budget": 160000000,
	"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
	"homepage": "https://www.warnerbros.com/movies/inception",
	"id": 27205,
	"imdb_id": "tt1375666",
	"origin_country": ["US"],
	"original_language": "en",
	"original_title": "Inception",
	"overview": "Cobb, a skilled thief who commits corporate espionage...",
	"popularity": 83.952,
	"poster_path": "/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg",
	"production_companies": [
		{"id": 923, "logo_path": "/8M99Dkt23MjQMTTWukq4m5XsEuo.png", "name": "Legendary Pictures", "origin_country": "US"},
		{"id": 9996, "logo_path": null, "name": "Syncopy", "origin_country": "GB"}
	],
	"production_countries": [{"iso_3166_1": "GB", "name": "United Kingdom"}, {"iso_3166_1": "US", "name": "United States of America"}],
	"release_date": "2010-07-15",
	"revenue": 825532764,
	"runtime": 148,
	"spoken_languages": [{"english_name": "English", "iso_639_1": "en", "name": "English"}],
	"status": "Released",
	"tagline": "Your mind is the scene of the crime.",
	"title": "Inception",
	"video": false,
	"vote_average": 8.4,
	"vote_count": 35000
}`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, serverURL string, retries uint) *tmdb.Client {
	t.Helper()
	client, err := tmdb.NewClient(tmdb.Config{
		APIKey:     "test-api-key",
		BaseURL:    serverURL,
		Retries:    retries,
		RetryDelay: time.Millisecond,
	}, quietLogger())
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("Error when API key not set", func(t *testing.T) {
		client, err := tmdb.NewClient(tmdb.Config{}, nil)
		require.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "TMDB API key is required")
	})

	t.Run("Error on invalid base URL", func(t *testing.T) {
		_, err := tmdb.NewClient(tmdb.Config{APIKey: "k", BaseURL: "not a url"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid BaseURL")
	})

	t.Run("Defaults", func(t *testing.T) {
		client, err := tmdb.NewClient(tmdb.Config{APIKey: "k"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestSearch(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "Dune", r.URL.Query().Get("query"))
		assert.Equal(t, "2021", r.URL.Query().Get("year"))
		assert.Equal(t, "false", r.URL.Query().Get("include_adult"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{
			"page": 1,
			"results": [
				{"id": 438631, "title": "Dune", "release_date": "2021-09-15", "popularity": 120.5},
				{"id": 0, "title": "broken"},
				{"id": 693134, "title": "Dune: Part Two", "release_date": "2024-02-27"}
			],
			"total_pages": 1,
			"total_results": 3
		}`)
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL, 0)
	candidates, err := client.Search(context.Background(), "Dune", "2021")

	require.NoError(t, err)
	require.Len(t, candidates, 2, "results without an id are dropped")
	assert.Equal(t, 438631, candidates[0].RemoteID)
	assert.Equal(t, "Dune", candidates[0].Title)
	assert.Equal(t, "2021-09-15", candidates[0].ReleaseDate)
	assert.Equal(t, 120.5, candidates[0].Popularity)
	assert.Equal(t, 693134, candidates[1].RemoteID)
}

func TestSearch_NoYearAndNoResults(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasYear := r.URL.Query()["year"]
		assert.False(t, hasYear, "year must be omitted when absent")
		fmt.Fprint(w, `{"page": 1, "results": [], "total_pages": 0, "total_results": 0}`)
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL, 0)
	candidates, err := client.Search(context.Background(), "Nothing Like This", "")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFetch(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/27205", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, inceptionJSON)
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL, 0)
	rec, err := client.Fetch(context.Background(), 27205)

	require.NoError(t, err)
	assert.Equal(t, 27205, rec.RemoteID)
	assert.Equal(t, "Inception", *rec.Title)
	assert.Equal(t, "2010-07-15", *rec.ReleaseDate)
	assert.Equal(t, 148, *rec.Runtime)
	assert.Equal(t, int64(160000000), *rec.Budget)
	assert.Equal(t, "tt1375666", *rec.IMDbID)
	assert.Nil(t, rec.Collection)
	require.Len(t, rec.Genres, 2)
	assert.Equal(t, "Action", rec.Genres[0].Name)
	assert.Equal(t, "Science Fiction", rec.Genres[1].Name)
	require.Len(t, rec.ProductionCompanies, 2)
	assert.Nil(t, rec.ProductionCompanies[1].LogoPath)
	assert.Len(t, rec.ProductionCountries, 2)
	assert.Len(t, rec.SpokenLanguages, 1)
}

func TestFetch_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"not found", http.StatusNotFound, `{"success":false,"status_code":34,"status_message":"The resource you requested could not be found."}`, coreErrors.ErrNotFound, "could not be found"},
		{"unauthorized", http.StatusUnauthorized, `{"success":false,"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`, coreErrors.ErrProviderUnavailable, "Invalid API key"},
		{"server error", http.StatusServiceUnavailable, `upstream down`, coreErrors.ErrProviderUnavailable, "503"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer mockServer.Close()

			client := newTestClient(t, mockServer.URL, 0)
			rec, err := client.Fetch(context.Background(), 1)
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestFetch_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing title", `{"id": 5}`},
		{"id mismatch", `{"id": 6, "title": "Other"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			defer mockServer.Close()

			client := newTestClient(t, mockServer.URL, 0)
			_, err := client.Fetch(context.Background(), 5)
			assert.ErrorIs(t, err, coreErrors.ErrInvalidRecord)
		})
	}
}

func TestProviderUnavailable_NoRetryByDefault(t *testing.T) {
	var hits int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL, 0)
	_, err := client.Search(context.Background(), "Heat", "")
	assert.ErrorIs(t, err, coreErrors.ErrProviderUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestProviderUnavailable_RetriesWhenConfigured(t *testing.T) {
	var hits int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"page":1,"results":[{"id":949,"title":"Heat","release_date":"1995-12-15"}]}`)
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL, 2)
	candidates, err := client.Search(context.Background(), "Heat", "")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestNotFound_IsNeverRetried(t *testing.T) {
	var hits int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL, 3)
	_, err := client.Fetch(context.Background(), 42)
	assert.ErrorIs(t, err, coreErrors.ErrNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestConnectionFailure(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := mockServer.URL
	mockServer.Close()

	client := newTestClient(t, serverURL, 0)
	_, err := client.Search(context.Background(), "Heat", "")
	assert.ErrorIs(t, err, coreErrors.ErrProviderUnavailable)
}

func TestDecodeRecord(t *testing.T) {
	rec, err := tmdb.DecodeRecord(strings.NewReader(inceptionJSON))
	require.NoError(t, err)
	assert.Equal(t, 27205, rec.RemoteID)
	assert.Equal(t, "Released", *rec.Status)
	assert.Equal(t, "Your mind is the scene of the crime.", *rec.Tagline)

	_, err = tmdb.DecodeRecord(strings.NewReader(`{"title": "No id"}`))
	assert.ErrorIs(t, err, coreErrors.ErrInvalidRecord)
}
