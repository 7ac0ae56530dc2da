package lines

import (
	"bytes"
	"fmt"

	"github.com/anjor/bufsplit/internal/splitter"
)

type lineSplitter struct {
	lines int
}

// New returns a splitter closing a piece right after every count-th
// line-feed. The line-feed stays with the piece it terminates.
func New(count int) (splitter.Splitter, error) {
	if count < 1 {
		return nil, fmt.Errorf("line count must be at least 1, got %d", count)
	}
	return &lineSplitter{lines: count}, nil
}

func (c *lineSplitter) Split(
	buf []byte,
	useEntireBuffer bool,
	cb splitter.SplitResultCallback,
) (err error) {

	var pieceStart, curIdx, seen int

	for {
		nl := bytes.IndexByte(buf[curIdx:], '\n')
		if nl < 0 {
			break
		}
		curIdx += nl + 1
		seen++

		if seen == c.lines {
			if err = cb(splitter.Chunk{Size: curIdx - pieceStart}); err != nil {
				return
			}
			pieceStart = curIdx
			seen = 0
		}
	}

	if pieceStart < len(buf) && useEntireBuffer {
		err = cb(splitter.Chunk{Size: len(buf) - pieceStart})
	}
	return
}
