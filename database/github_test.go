package database

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentsPath = "/repos/zipline/site/contents/data/tickets.json"

func newGitHubTestStore(t *testing.T, handler http.HandlerFunc) *GitHubStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewGitHubStore(GitHubStoreConfig{
		Token:   "test-token",
		Owner:   "zipline",
		Repo:    "site",
		Branch:  "main",
		BaseURL: server.URL,
		HTTP:    server.Client(),
	})
	require.NoError(t, err)
	return store
}

func TestNewGitHubStore_RequiresCredentials(t *testing.T) {
	_, err := NewGitHubStore(GitHubStoreConfig{Owner: "zipline", Repo: "site"})
	assert.Error(t, err)
}

func TestGitHubStore_Get(t *testing.T) {
	var receivedAuth, receivedRef string
	store := newGitHubTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		receivedRef = r.URL.Query().Get("ref")
		require.Equal(t, contentsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     "data/tickets.json",
			"sha":      "sha-1",
			"content":  base64.StdEncoding.EncodeToString([]byte(`[{"id":"ZL-1"}]`)),
		})
	})

	doc, err := store.Get(context.Background(), "data/tickets.json")
	require.NoError(t, err)
	assert.Equal(t, "sha-1", doc.Revision)
	assert.JSONEq(t, `[{"id":"ZL-1"}]`, string(doc.Content))
	assert.Equal(t, "Bearer test-token", receivedAuth)
	assert.Equal(t, "main", receivedRef)
}

func TestGitHubStore_GetNotFound(t *testing.T) {
	store := newGitHubTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := store.Get(context.Background(), "data/tickets.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGitHubStore_PutSendsRevision(t *testing.T) {
	var body map[string]any
	store := newGitHubTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, contentsPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":{"sha":"sha-2","path":"data/tickets.json"}}`))
	})

	rev, err := store.Put(context.Background(), "data/tickets.json", []byte(`[]`), "sha-1", "Add tickets")
	require.NoError(t, err)
	assert.Equal(t, "sha-2", rev)
	assert.Equal(t, "sha-1", body["sha"])
	assert.Equal(t, "main", body["branch"])
	assert.Equal(t, "Add tickets", body["message"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(`[]`)), body["content"])
}

func TestGitHubStore_PutCreateOmitsRevision(t *testing.T) {
	var body map[string]any
	store := newGitHubTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"content":{"sha":"sha-new"}}`))
	})

	rev, err := store.Put(context.Background(), "data/tickets.json", []byte(`[]`), "", "Create tickets")
	require.NoError(t, err)
	assert.Equal(t, "sha-new", rev)
	_, hasSHA := body["sha"]
	assert.False(t, hasSHA)
}

func TestGitHubStore_PutErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"stale sha", http.StatusConflict, ErrConflict},
		{"missing sha", http.StatusUnprocessableEntity, ErrConflict},
		{"bad token", http.StatusUnauthorized, ErrUnauthorized},
		{"missing file", http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newGitHubTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"message":"nope"}`))
			})
			_, err := store.Put(context.Background(), "data/tickets.json", []byte(`[]`), "sha-1", "update")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
