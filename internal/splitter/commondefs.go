package splitter

import (
	"github.com/anjor/bufsplit/internal/constants"
)

// Splitter walks a buffer from the start and reports consecutive piece
// sizes through the callback. The sizes always sum to the amount of the
// buffer consumed, so callers can sub-slice the buffer as they go.
//
// When useEntireBuffer is false a trailing piece whose boundary has not
// been seen yet is withheld, allowing the same buffer to be re-presented
// once more data arrived.
type Splitter interface {
	Split(
		rawDataBuffer []byte,
		useEntireBuffer bool,
		resultCallback SplitResultCallback,
	) error
}

type SplitResultCallback func(
	singleSplitResult Chunk,
) error

type Chunk struct {
	_    constants.Incomparabe
	Size int
}
