package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	commits  map[string]string // "repo@branch" -> sha
	files    map[string]string // "repo@branch:path" -> content
	requests []string
	auth     []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{commits: map[string]string{}, files: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/{repo}/commits/{branch}", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		sha, ok := api.commit(r.PathValue("repo"), r.PathValue("branch"))
		if !ok {
			http.Error(w, `{"message":"No commit found for SHA"}`, http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"sha":%q}`, sha)
	})
	mux.HandleFunc("/repos/acme/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		content, ok := api.file(r.PathValue("repo"), r.URL.Query().Get("ref"), r.PathValue("path"))
		if !ok {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","content":%q}`,
			base64.StdEncoding.EncodeToString([]byte(content)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) record(r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, r.URL.RequestURI())
	a.auth = append(a.auth, r.Header.Get("Authorization"))
}

func (a *fakeAPI) commit(repo, branch string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sha, ok := a.commits[repo+"@"+branch]
	return sha, ok
}

func (a *fakeAPI) file(repo, branch, path string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.files[repo+"@"+branch+":"+path]
	return c, ok
}

func (a *fakeAPI) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Config{Owner: "acme", Token: token, BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestLatestCommit_When_MainExists(t *testing.T) {
	t.Parallel()

	api, srv := newFakeAPI(t)
	api.commits["CoreSetup@main"] = "abc123\n"

	sha, err := newTestClient(t, srv, "").LatestCommit(context.Background(), "CoreSetup")
	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
	assert.Equal(t, []string{"/repos/acme/CoreSetup/commits/main"}, api.Requests())
}

func TestLatestCommit_FallsBackToMaster(t *testing.T) {
	t.Parallel()

	api, srv := newFakeAPI(t)
	api.commits["Legacy@master"] = "def456"

	sha, err := newTestClient(t, srv, "").LatestCommit(context.Background(), "Legacy")
	require.NoError(t, err)
	assert.Equal(t, "def456", sha)
	assert.Equal(t, []string{"/repos/acme/Legacy/commits/main", "/repos/acme/Legacy/commits/master"}, api.Requests())
}

func TestLatestCommit_When_NeitherBranchExists(t *testing.T) {
	t.Parallel()

	_, srv := newFakeAPI(t)

	_, err := newTestClient(t, srv, "").LatestCommit(context.Background(), "Gone")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "acme/Gone")
}

func TestFileContent_FallsBackToMaster(t *testing.T) {
	t.Parallel()

	api, srv := newFakeAPI(t)
	api.files["Legacy@master:src/Get-Info.ps1"] = "Write-Output 'hi'\n"

	got, err := newTestClient(t, srv, "").FileContent(context.Background(), "Legacy", "src/Get-Info.ps1")
	require.NoError(t, err)
	assert.Equal(t, "Write-Output 'hi'\n", string(got))
	assert.Equal(t, []string{
		"/repos/acme/Legacy/contents/src/Get-Info.ps1?ref=main",
		"/repos/acme/Legacy/contents/src/Get-Info.ps1?ref=master",
	}, api.Requests())
}

func TestFileContent_When_Missing(t *testing.T) {
	t.Parallel()

	_, srv := newFakeAPI(t)

	_, err := newTestClient(t, srv, "").FileContent(context.Background(), "R", "x.ps1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewClient_SendsToken(t *testing.T) {
	t.Parallel()

	api, srv := newFakeAPI(t)
	api.commits["R@main"] = "1"

	c := newTestClient(t, srv, "ghp_secret")
	assert.Equal(t, AuthMethodToken, c.GetAuthMethod())
	_, err := c.LatestCommit(context.Background(), "R")
	require.NoError(t, err)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"Bearer ghp_secret"}, api.auth)
}

func TestNewClient_RequiresOwner(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}
