package browser

import (
	"errors"

	"github.com/agentic-research/fileman/internal/fileop"
	"github.com/agentic-research/fileman/internal/scene"
)

var (
	ErrDestinationMissing     = errors.New("destination directory does not exist")
	ErrDestinationNotWritable = errors.New("destination directory is not writable")
	ErrFileMissing            = errors.New("file does not exist")
	ErrNoParm                 = errors.New("no parameter at row")
)

// IsConfigError reports whether err comes from a setting the user has to
// fix before anything can run.
func IsConfigError(err error) bool {
	return errors.Is(err, fileop.ErrUnsupportedAction) ||
		errors.Is(err, scene.ErrUnknownFileType) ||
		errors.Is(err, ErrDestinationMissing) ||
		errors.Is(err, ErrDestinationNotWritable)
}
