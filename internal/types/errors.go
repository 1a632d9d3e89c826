package types

import "errors"

// Fatal error kinds. They abort a run.
var (
	ErrInputResolution = errors.New("input is neither a local directory nor a GitHub repository reference")
	ErrAuthentication  = errors.New("GitHub authentication failed; set GITHUB_TOKEN to a valid personal access token")
	ErrOutputWrite     = errors.New("unable to write output document")
)

// Per-file error kinds. They are recovered and rendered as placeholders.
var (
	ErrRead        = errors.New("file could not be read")
	ErrDecode      = errors.New("file content is not text")
	ErrCompression = errors.New("compression heuristics could not process file")
)
