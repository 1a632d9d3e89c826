package source_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/repoctx/internal/source"
	"github.com/temirov/repoctx/internal/types"
)

const (
	testOwner      = "octo"
	testRepository = "demo"
	testToken      = "test-token"
)

type treeFixtureEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size,omitempty"`
}

func startGitHubServer(t *testing.T, blobs map[string]string) *httptest.Server {
	t.Helper()
	entries := []treeFixtureEntry{
		{Path: "README.md", Type: "blob", SHA: "sha-readme", Size: 7},
		{Path: "cmd", Type: "tree", SHA: "sha-cmd"},
		{Path: "cmd/main.go", Type: "blob", SHA: "sha-main", Size: 12},
		{Path: "vendor-module", Type: "commit", SHA: "sha-submodule"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/"+testOwner+"/"+testRepository, func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer "+testToken {
			writer.WriteHeader(http.StatusUnauthorized)
			_, _ = writer.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"name":"demo","default_branch":"main"}`))
	})
	mux.HandleFunc("/repos/"+testOwner+"/"+testRepository+"/git/trees/main", func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "1", request.URL.Query().Get("recursive"))
		writer.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(writer).Encode(map[string]any{"sha": "root", "tree": entries, "truncated": false}))
	})
	mux.HandleFunc("/repos/"+testOwner+"/"+testRepository+"/git/blobs/", func(writer http.ResponseWriter, request *http.Request) {
		sha := request.URL.Path[len("/repos/"+testOwner+"/"+testRepository+"/git/blobs/"):]
		content, exists := blobs[sha]
		if !exists {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_, _ = writer.Write([]byte(content))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGitHubSourceListsTreeAndReadsBlobs(t *testing.T) {
	server := startGitHubServer(t, map[string]string{"sha-readme": "# Demo\n", "sha-main": "package main"})
	client, clientError := source.NewGitHubClient(testToken, server.URL)
	require.NoError(t, clientError)

	remote, openError := source.OpenGitHubSource(context.Background(), client, source.Reference{Owner: testOwner, Repository: testRepository}, nil)
	require.NoError(t, openError)
	assert.Equal(t, testRepository, remote.Name())
	assert.Equal(t, "main", remote.Reference().Ref)

	rootEntries, listError := remote.ListEntries(context.Background(), "")
	require.NoError(t, listError)
	names := make([]string, 0, len(rootEntries))
	for _, entry := range rootEntries {
		names = append(names, entry.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"README.md", "cmd"}, names)

	commandEntries, listError := remote.ListEntries(context.Background(), "cmd")
	require.NoError(t, listError)
	require.Len(t, commandEntries, 1)
	assert.Equal(t, source.Entry{Name: "main.go", Kind: types.NodeTypeFile, Size: 12}, commandEntries[0])

	content, readError := remote.ReadFile(context.Background(), "cmd/main.go")
	require.NoError(t, readError)
	assert.Equal(t, "package main", string(content))

	_, readError = remote.ReadFile(context.Background(), "missing.txt")
	assert.ErrorIs(t, readError, source.ErrEntryNotFound)
}

func TestGitHubSourceNarrowsToSubPath(t *testing.T) {
	server := startGitHubServer(t, map[string]string{"sha-main": "package main"})
	client, clientError := source.NewGitHubClient(testToken, server.URL)
	require.NoError(t, clientError)

	remote, openError := source.OpenGitHubSource(context.Background(), client, source.Reference{Owner: testOwner, Repository: testRepository, Ref: "main", Path: "cmd"}, nil)
	require.NoError(t, openError)

	rootEntries, listError := remote.ListEntries(context.Background(), "")
	require.NoError(t, listError)
	require.Len(t, rootEntries, 1)
	assert.Equal(t, "main.go", rootEntries[0].Name)

	content, readError := remote.ReadFile(context.Background(), "main.go")
	require.NoError(t, readError)
	assert.Equal(t, "package main", string(content))

	_, openError = source.OpenGitHubSource(context.Background(), client, source.Reference{Owner: testOwner, Repository: testRepository, Ref: "main", Path: "docs"}, nil)
	assert.ErrorIs(t, openError, types.ErrInputResolution)
}

func TestGitHubSourceReportsAuthenticationFailure(t *testing.T) {
	server := startGitHubServer(t, nil)
	client, clientError := source.NewGitHubClient("wrong-token", server.URL)
	require.NoError(t, clientError)

	_, openError := source.OpenGitHubSource(context.Background(), client, source.Reference{Owner: testOwner, Repository: testRepository}, nil)
	require.Error(t, openError)
	assert.True(t, errors.Is(openError, types.ErrAuthentication))
}

func TestNewGitHubClientRequiresToken(t *testing.T) {
	_, clientError := source.NewGitHubClient("  ", "")
	assert.ErrorIs(t, clientError, types.ErrAuthentication)
}
