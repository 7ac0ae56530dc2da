package fixedsize

import (
	"fmt"

	"github.com/anjor/bufsplit/internal/splitter"
)

type fixedSizeSplitter struct {
	size int
}

// New returns a splitter cutting the buffer into chunks of exactly size
// bytes. The last chunk carries the remainder.
func New(size int) (splitter.Splitter, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", size)
	}
	return &fixedSizeSplitter{size: size}, nil
}

func (c *fixedSizeSplitter) Split(
	buf []byte,
	useEntireBuffer bool,
	cb splitter.SplitResultCallback,
) (err error) {

	curIdx := c.size

	for curIdx <= len(buf) {
		err = cb(splitter.Chunk{Size: c.size})
		if err != nil {
			return
		}
		curIdx += c.size
	}

	if curIdx-c.size < len(buf) && useEntireBuffer {
		err = cb(splitter.Chunk{Size: len(buf) - (curIdx - c.size)})
	}
	return
}
