package bufsplit

import (
	"fmt"
	"log"

	"github.com/anjor/bufsplit/internal/constants"
	"github.com/anjor/bufsplit/internal/splitter"
	"github.com/anjor/bufsplit/internal/splitter/fixedsize"
	"github.com/anjor/bufsplit/internal/splitter/linebytes"
	"github.com/anjor/bufsplit/internal/splitter/lines"
)

var availableSplitters = map[ModeKind]func(int) (splitter.Splitter, error){
	ModeLines:     lines.New,
	ModeBytes:     fixedsize.New,
	ModeLineBytes: linebytes.New,
}

const maxInt = int(^uint(0) >> 1)

// splitPieces cuts buf according to mode. The returned pieces alias buf.
func splitPieces(buf []byte, mode Mode) ([][]byte, error) {
	init, exists := availableSplitters[mode.Kind]
	if !exists {
		return nil, fmt.Errorf("%w: unknown mode %s", ErrInvalidOptions, mode.Kind)
	}

	// a count beyond what an int holds behaves exactly like one covering
	// the entire buffer
	count := maxInt
	if mode.Count < int64(maxInt) {
		count = int(mode.Count)
	}

	s, err := init(count)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCount, err)
	}

	pieces := make([][]byte, 0)
	var processed int
	if err := s.Split(
		buf,
		true,
		func(c splitter.Chunk) error {
			if constants.PerformSanityChecks && (c.Size < 1 || processed+c.Size > len(buf)) {
				log.Panicf(
					"splitter %s returned a chunk of %d bytes at offset %d of a %d byte buffer",
					mode, c.Size, processed, len(buf),
				)
			}
			pieces = append(pieces, buf[processed:processed+c.Size:processed+c.Size])
			processed += c.Size
			return nil
		},
	); err != nil {
		return nil, err
	}

	if constants.PerformSanityChecks && processed != len(buf) {
		log.Panicf("splitter %s consumed %d bytes out of %d", mode, processed, len(buf))
	}

	return pieces, nil
}
