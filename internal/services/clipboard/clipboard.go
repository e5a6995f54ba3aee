// Package clipboard copies finished bundles to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard utility exists on this system,
// e.g. a Linux host without xclip, xsel or wl-copy.
var ErrUnavailable = errors.New("system clipboard is unavailable")

// Copier copies textual data to a clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs the system clipboard Copier.
func NewService() *Service {
	return &Service{}
}

// Copy replaces the clipboard content with text.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)
