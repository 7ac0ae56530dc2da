package linebytes

import (
	"fmt"

	"github.com/anjor/bufsplit/internal/splitter"
	"github.com/anjor/bufsplit/internal/splitter/fixedsize"
	"github.com/anjor/bufsplit/internal/splitter/lines"
)

// lineBytesSplitter is a two-stage chain: every single line is handed on
// its own to a fixed-size splitter, so bytes of two lines never end up in
// the same piece.
type lineBytesSplitter struct {
	lines splitter.Splitter
	bytes splitter.Splitter
}

func New(size int) (splitter.Splitter, error) {
	if size < 1 {
		return nil, fmt.Errorf("line byte limit must be at least 1, got %d", size)
	}

	ls, err := lines.New(1)
	if err != nil {
		return nil, err
	}
	fs, err := fixedsize.New(size)
	if err != nil {
		return nil, err
	}

	return &lineBytesSplitter{lines: ls, bytes: fs}, nil
}

func (c *lineBytesSplitter) Split(
	buf []byte,
	useEntireBuffer bool,
	cb splitter.SplitResultCallback,
) error {

	var lineStart int

	return c.lines.Split(
		buf,
		useEntireBuffer,
		func(line splitter.Chunk) error {
			// a line is always complete here, so hand over all of it
			err := c.bytes.Split(buf[lineStart:lineStart+line.Size], true, cb)
			lineStart += line.Size
			return err
		},
	)
}
