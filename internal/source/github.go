package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	treeEntryTypeBlob = "blob"
	treeEntryTypeTree = "tree"

	errorRepositoryFormat     = "fetching repository %s/%s: %w"
	errorTreeFormat           = "fetching tree %s/%s@%s: %w"
	errorBlobFormat           = "fetching blob %s: %w"
	errorSubPathFormat        = "path %q not found in %s/%s@%s: %w"
	errorBaseURLFormat        = "parsing GitHub API URL %q: %w"
	errorMissingTokenFormat   = "%w: %s is not set"
	truncatedTreeWarning      = "GitHub returned a truncated tree; some files are missing"
	logFieldRepository        = "repository"
	logFieldReference         = "ref"
	trailingSlash             = "/"
	pathSeparator             = "/"
	currentDirectoryComponent = "."
)

type blobRecord struct {
	sha  string
	size int64
}

// GitHubSource serves one repository tree, optionally narrowed to a sub-path, through the
// GitHub REST API. The recursive tree is fetched once when the source is opened; file
// contents are fetched on demand.
type GitHubSource struct {
	client      *gh.Client
	reference   Reference
	directories map[string][]Entry
	blobs       map[string]blobRecord
}

// NewGitHubClient builds an authenticated client. An empty baseURL selects api.github.com.
func NewGitHubClient(token string, baseURL string) (*gh.Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf(errorMissingTokenFormat, types.ErrAuthentication, utils.GitHubTokenEnvironmentVariable)
	}
	client := gh.NewClient(nil).WithAuthToken(token)
	if baseURL == "" {
		return client, nil
	}
	if !strings.HasSuffix(baseURL, trailingSlash) {
		baseURL += trailingSlash
	}
	parsedURL, parseError := url.Parse(baseURL)
	if parseError != nil {
		return nil, fmt.Errorf(errorBaseURLFormat, baseURL, parseError)
	}
	client.BaseURL = parsedURL
	return client, nil
}

// OpenGitHubSource resolves the reference's ref (the default branch when empty) and loads its
// recursive tree.
func OpenGitHubSource(ctx context.Context, client *gh.Client, reference Reference, logger *zap.Logger) (*GitHubSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reference.Ref == "" {
		repository, _, repositoryError := client.Repositories.Get(ctx, reference.Owner, reference.Repository)
		if repositoryError != nil {
			return nil, fmt.Errorf(errorRepositoryFormat, reference.Owner, reference.Repository, classifyGitHubError(repositoryError))
		}
		reference.Ref = repository.GetDefaultBranch()
	}

	tree, _, treeError := client.Git.GetTree(ctx, reference.Owner, reference.Repository, reference.Ref, true)
	if treeError != nil {
		return nil, fmt.Errorf(errorTreeFormat, reference.Owner, reference.Repository, reference.Ref, classifyGitHubError(treeError))
	}
	if tree.GetTruncated() {
		logger.Warn(truncatedTreeWarning, zap.String(logFieldRepository, reference.Owner+pathSeparator+reference.Repository), zap.String(logFieldReference, reference.Ref))
	}

	source := &GitHubSource{
		client:      client,
		reference:   reference,
		directories: map[string][]Entry{"": nil},
		blobs:       map[string]blobRecord{},
	}
	prefix := ""
	if reference.Path != "" {
		prefix = reference.Path + pathSeparator
	}
	found := reference.Path == ""
	for _, treeEntry := range tree.Entries {
		entryPath := treeEntry.GetPath()
		if entryPath == reference.Path && treeEntry.GetType() == treeEntryTypeTree {
			found = true
			continue
		}
		if !strings.HasPrefix(entryPath, prefix) {
			continue
		}
		relativePath := strings.TrimPrefix(entryPath, prefix)
		switch treeEntry.GetType() {
		case treeEntryTypeBlob:
			source.addEntry(relativePath, Entry{Name: path.Base(relativePath), Kind: types.NodeTypeFile, Size: int64(treeEntry.GetSize())})
			source.blobs[relativePath] = blobRecord{sha: treeEntry.GetSHA(), size: int64(treeEntry.GetSize())}
		case treeEntryTypeTree:
			source.addEntry(relativePath, Entry{Name: path.Base(relativePath), Kind: types.NodeTypeDirectory})
			if _, exists := source.directories[relativePath]; !exists {
				source.directories[relativePath] = nil
			}
		}
	}
	if !found {
		return nil, fmt.Errorf(errorSubPathFormat, reference.Path, reference.Owner, reference.Repository, reference.Ref, types.ErrInputResolution)
	}
	return source, nil
}

func (remote *GitHubSource) addEntry(relativePath string, entry Entry) {
	parent := path.Dir(relativePath)
	if parent == currentDirectoryComponent {
		parent = ""
	}
	remote.directories[parent] = append(remote.directories[parent], entry)
}

// Name returns the repository name.
func (remote *GitHubSource) Name() string {
	return remote.reference.Repository
}

// Reference returns the repository coordinates with the resolved ref.
func (remote *GitHubSource) Reference() Reference {
	return remote.reference
}

// ListEntries returns the children of directory from the loaded tree.
func (remote *GitHubSource) ListEntries(ctx context.Context, directory string) ([]Entry, error) {
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	entries, exists := remote.directories[directory]
	if !exists {
		return nil, fmt.Errorf(errorReadDirectoryFormat, directory, ErrEntryNotFound)
	}
	return append([]Entry(nil), entries...), nil
}

// ReadFile downloads the raw blob for filePath.
func (remote *GitHubSource) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	record, exists := remote.blobs[filePath]
	if !exists {
		return nil, fmt.Errorf(errorReadFileFormat, filePath, ErrEntryNotFound)
	}
	content, _, blobError := remote.client.Git.GetBlobRaw(ctx, remote.reference.Owner, remote.reference.Repository, record.sha)
	if blobError != nil {
		return nil, fmt.Errorf(errorBlobFormat, filePath, classifyGitHubError(blobError))
	}
	return content, nil
}

// classifyGitHubError maps rejected credentials to ErrAuthentication.
func classifyGitHubError(err error) error {
	var responseError *gh.ErrorResponse
	if errors.As(err, &responseError) && responseError.Response != nil {
		switch responseError.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Join(types.ErrAuthentication, err)
		}
	}
	return err
}

var _ RepoSource = (*GitHubSource)(nil)
