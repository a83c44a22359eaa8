package httpclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/falkben/media-organizer/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Query string `url:"query"`
	Year  string `url:"year,omitempty"`
	Adult bool   `url:"include_adult"`
}

func TestGet_EncodesParamsAndKey(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "The Matrix", q.Get("query"))
		assert.Equal(t, "false", q.Get("include_adult"))
		assert.NotContains(t, q, "year")
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer mockServer.Close()

	client := httpclient.New(mockServer.URL+"/3", "secret", "test-agent", time.Second)
	body, err := client.Get(context.Background(), "/search/movie", params{Query: "The Matrix"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGet_StatusError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `slow down`)
	}))
	defer mockServer.Close()

	client := httpclient.New(mockServer.URL, "", "ua", time.Second)
	_, err := client.Get(context.Background(), "/movie/1", nil)
	require.Error(t, err)

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "slow down", statusErr.Body)
}
