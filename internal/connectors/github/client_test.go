package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

var testRepo = driven.RepoRef{Owner: "acme", Name: "demo"}

// testFetcher serves canned GitHub API responses from a stub server. Paths
// are the enterprise-style /api/v3/ prefix the client is pointed at.
func testFetcher(t *testing.T, routes map[string]string) *Fetcher {
	t.Helper()

	mux := http.NewServeMux()
	for path, body := range routes {
		payload := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(payload))
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fetcher, err := NewFetcherWithClient(server.Client(), server.URL)
	require.NoError(t, err)
	return fetcher
}

func TestListDirectory(t *testing.T) {
	fetcher := testFetcher(t, map[string]string{
		"/api/v3/repos/acme/demo/contents/": `[
			{"path": "src", "type": "dir", "size": 0},
			{"path": "main.ts", "type": "file", "size": 120}
		]`,
	})

	entries, err := fetcher.ListDirectory(context.Background(), testRepo, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "src", entries[0].Path)
	assert.Equal(t, driven.EntryDir, entries[0].Type)
	assert.Equal(t, "main.ts", entries[1].Path)
	assert.Equal(t, driven.EntryFile, entries[1].Type)
	assert.Equal(t, 120, entries[1].Size)
}

func TestFileContent(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("function login() {}"))
	fetcher := testFetcher(t, map[string]string{
		"/api/v3/repos/acme/demo/contents/src/auth.ts": `{
			"type": "file", "path": "src/auth.ts",
			"encoding": "base64", "content": "` + encoded + `"
		}`,
	})

	content, err := fetcher.FileContent(context.Background(), testRepo, "src/auth.ts")
	require.NoError(t, err)
	assert.Equal(t, "function login() {}", content)
}

func TestFileContent_Directory(t *testing.T) {
	fetcher := testFetcher(t, map[string]string{
		"/api/v3/repos/acme/demo/contents/src": `[{"path": "src/a.ts", "type": "file"}]`,
	})

	_, err := fetcher.FileContent(context.Background(), testRepo, "src")
	assert.ErrorContains(t, err, "directory")
}

func TestListCommits(t *testing.T) {
	fetcher := testFetcher(t, map[string]string{
		"/api/v3/repos/acme/demo/commits": `[{
			"sha": "aaa1111",
			"commit": {
				"message": "add login",
				"author": {"name": "dev", "date": "2026-08-01T12:00:00Z"}
			},
			"author": {"avatar_url": "https://example.com/avatar.png"}
		}]`,
	})

	commits, err := fetcher.ListCommits(context.Background(), testRepo, 20)
	require.NoError(t, err)
	require.Len(t, commits, 1)

	assert.Equal(t, "aaa1111", commits[0].Hash)
	assert.Equal(t, "add login", commits[0].Message)
	assert.Equal(t, "dev", commits[0].AuthorName)
	assert.Equal(t, "https://example.com/avatar.png", commits[0].AuthorAvatar)
	assert.Equal(t, 2026, commits[0].Date.Year())
}

func TestCommitDiff(t *testing.T) {
	fetcher := testFetcher(t, map[string]string{
		"/api/v3/repos/acme/demo/commits/aaa1111": `{
			"sha": "aaa1111",
			"files": [
				{"filename": "src/auth.ts", "patch": "@@ -1 +1,2 @@\n+function login() {}"},
				{"filename": "binary.png", "patch": ""}
			]
		}`,
	})

	diff, err := fetcher.CommitDiff(context.Background(), testRepo, "aaa1111")
	require.NoError(t, err)

	assert.Contains(t, diff, "diff --git a/src/auth.ts b/src/auth.ts")
	assert.Contains(t, diff, "+function login() {}")
	// Files without a patch contribute nothing.
	assert.NotContains(t, diff, "binary.png")
}

func TestListDirectory_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fetcher, err := NewFetcherWithClient(server.Client(), server.URL)
	require.NoError(t, err)

	_, err = fetcher.ListDirectory(context.Background(), testRepo, "")
	assert.True(t, IsNotFound(err))
}

func TestUpdatesRateLimitFromHeaders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRateRemaining, "4999")
		w.Header().Set(HeaderRateLimit, "5000")
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fetcher, err := NewFetcherWithClient(server.Client(), server.URL)
	require.NoError(t, err)

	_, err = fetcher.ListDirectory(context.Background(), testRepo, "")
	require.NoError(t, err)
	assert.Equal(t, 4999, fetcher.RateLimiter().Remaining())
}
