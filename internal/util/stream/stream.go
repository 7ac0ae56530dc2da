package stream

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY reports whether the reader or writer is an interactive terminal.
func IsTTY(f interface{}) bool {
	if fh, isFh := f.(*os.File); isFh {
		return isatty.IsTerminal(fh.Fd()) || isatty.IsCygwinTerminal(fh.Fd())
	}
	return false
}

// An Optimization returns os.ErrInvalid when it does not apply to the
// given file type.
type Optimization struct {
	Name   string
	Action func(*os.File, os.FileInfo) error
}

// ReadOptimizations is populated by the platform specific files.
var ReadOptimizations []Optimization
