// Package clipboard copies finished documents to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable reports that no clipboard utility can be used on this system.
var ErrUnavailable = errors.New("system clipboard is unavailable")

const errorCopyFormat = "%w: %w"

// Copier copies textual data to a clipboard.
type Copier interface {
	Copy(text string) error
}

// SystemClipboard implements Copier with github.com/atotto/clipboard.
type SystemClipboard struct {
	writeAll    func(string) error
	unsupported bool
}

// NewSystemClipboard returns a Copier bound to the operating system clipboard.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{writeAll: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

// Copy writes text to the clipboard.
func (systemClipboard *SystemClipboard) Copy(text string) error {
	if systemClipboard.unsupported {
		return ErrUnavailable
	}
	if writeError := systemClipboard.writeAll(text); writeError != nil {
		return fmt.Errorf(errorCopyFormat, ErrUnavailable, writeError)
	}
	return nil
}

var _ Copier = (*SystemClipboard)(nil)
