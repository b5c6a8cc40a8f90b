package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/u-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId": "u-1", "userName": "Alice"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second)
	profile, err := r.Resolve(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Username)
}

func TestResolveNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second)
	_, err := r.Resolve(context.Background(), "u-1")
	assert.Error(t, err)
}

func TestResolveTimeoutIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, 20*time.Millisecond)
	_, err := r.Resolve(context.Background(), "u-1")
	assert.Error(t, err)
}
