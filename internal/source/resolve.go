package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	gitHubHost          = "github.com"
	gitHubWebHost       = "www.github.com"
	sshPrefix           = "git@github.com:"
	sshURLPrefix        = "ssh://git@github.com/"
	gitSuffix           = ".git"
	treeSegment         = "tree"
	blobSegment         = "blob"
	errorNotDirectory   = "%w: %s is not a directory"
	errorUnrecognized   = "%w: %q"
	errorRemoteSubdirs  = "%w: subdirectories %v cannot be combined with remote repository %s"
	errorAbsolutePath   = "resolving %s: %w"
	referenceNameFormat = "%s/%s"
)

var schemePrefixes = []string{"https://", "http://"}

// Reference identifies a GitHub repository, an optional ref and an optional sub-path.
type Reference struct {
	Owner      string
	Repository string
	Ref        string
	Path       string
}

// String renders owner/repository.
func (reference Reference) String() string {
	return fmt.Sprintf(referenceNameFormat, reference.Owner, reference.Repository)
}

// Location is a resolved root input: exactly one of LocalPath and Remote is set.
type Location struct {
	LocalPath string
	Remote    *Reference
}

// IsRemote reports whether the input names a GitHub repository.
func (location Location) IsRemote() bool {
	return location.Remote != nil
}

// Resolve interprets input. An existing local directory wins; otherwise the input must be a
// GitHub repository URL. Remote inputs cannot be combined with subdirectories.
func Resolve(input string, subdirectories []string) (Location, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Location{}, fmt.Errorf(errorUnrecognized, types.ErrInputResolution, input)
	}
	if info, statError := os.Stat(trimmed); statError == nil {
		if !info.IsDir() {
			return Location{}, fmt.Errorf(errorNotDirectory, types.ErrInputResolution, trimmed)
		}
		absolutePath, absoluteError := filepath.Abs(trimmed)
		if absoluteError != nil {
			return Location{}, fmt.Errorf(errorAbsolutePath, trimmed, absoluteError)
		}
		return Location{LocalPath: absolutePath}, nil
	}

	reference, parsed := ParseGitHubReference(trimmed)
	if !parsed {
		return Location{}, fmt.Errorf(errorUnrecognized, types.ErrInputResolution, input)
	}
	if len(subdirectories) > 0 {
		return Location{}, fmt.Errorf(errorRemoteSubdirs, types.ErrInputResolution, subdirectories, reference)
	}
	return Location{Remote: &reference}, nil
}

// ParseGitHubReference accepts https and scheme-less github.com URLs, SSH remotes and
// /tree/<ref>/<path> or /blob/<ref>/<path> suffixes. A bare owner/repository is not accepted
// because it cannot be told apart from a missing local path.
func ParseGitHubReference(input string) (Reference, bool) {
	remainder := input
	if cut, found := strings.CutPrefix(remainder, sshPrefix); found {
		remainder = gitHubHost + pathSeparator + cut
	} else if cut, found := strings.CutPrefix(remainder, sshURLPrefix); found {
		remainder = gitHubHost + pathSeparator + cut
	}
	for _, scheme := range schemePrefixes {
		remainder = strings.TrimPrefix(remainder, scheme)
	}
	if index := strings.IndexAny(remainder, "?#"); index >= 0 {
		remainder = remainder[:index]
	}

	segments := strings.Split(strings.Trim(remainder, pathSeparator), pathSeparator)
	if len(segments) < 3 || (segments[0] != gitHubHost && segments[0] != gitHubWebHost) {
		return Reference{}, false
	}
	reference := Reference{
		Owner:      segments[1],
		Repository: strings.TrimSuffix(segments[2], gitSuffix),
	}
	if reference.Owner == "" || reference.Repository == "" {
		return Reference{}, false
	}
	rest := segments[3:]
	if len(rest) == 0 {
		return reference, true
	}
	if (rest[0] != treeSegment && rest[0] != blobSegment) || len(rest) < 2 || rest[1] == "" {
		return Reference{}, false
	}
	reference.Ref = rest[1]
	reference.Path = strings.Trim(strings.Join(rest[2:], pathSeparator), pathSeparator)
	return reference, true
}
