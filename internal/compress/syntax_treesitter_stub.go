//go:build !cgo

package compress

// Without cgo only Go sources are validated before structural compression.
