package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DCMX-Protocol/walletgate/core"
)

func TestHTTPBackendCreateOrFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users", r.URL.Path)

		var req struct {
			Address string `json:"address"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "0xabc", req.Address)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":        "user-9",
			"address":   req.Address,
			"username":  "carol",
			"kyc_level": 1,
			"balance":   "3.14",
		})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL, srv.Client())

	profile, err := backend.CreateOrFetch(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "user-9", profile.ID)
	assert.Equal(t, "carol", profile.Username)
	assert.Equal(t, "3.14", profile.Balance.String())
}

func TestHTTPBackendServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL, srv.Client())

	_, err := backend.CreateOrFetch(context.Background(), "0xabc")
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

func TestHTTPBackendUnreachableHostIsUnavailable(t *testing.T) {
	backend := NewHTTPBackend("http://127.0.0.1:1", nil)

	_, err := backend.CreateOrFetch(context.Background(), "0xabc")
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

func TestHTTPBackendHonorsContextTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	backend := NewHTTPBackend(srv.URL, srv.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := backend.CreateOrFetch(ctx, "0xabc")
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}
