package bufsplit

import (
	"errors"
	"fmt"
	"sync/atomic"

	"code.cloudfoundry.org/bytefmt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anjor/bufsplit/internal/naming"
	"github.com/anjor/bufsplit/internal/persist"
)

// Piece is a single named output unit as handed to a PieceWriter. Data
// aliases the buffer being split.
type Piece struct {
	Index int
	Name  string
	Data  []byte
}

// PieceWriter persists pieces. Split invokes WritePiece concurrently, once
// per piece; SplitSync invokes it sequentially in piece order.
type PieceWriter interface {
	WritePiece(p Piece) error
}

type PieceWriterFunc func(p Piece) error

func (f PieceWriterFunc) WritePiece(p Piece) error { return f(p) }

type fileWriter struct{ *persist.FileWriter }

func (w fileWriter) WritePiece(p Piece) error { return w.WriteFile(p.Name, p.Data) }

// Completion receives the outcome of Split: either an error or the full
// piece sequence, never both and never more than once.
type Completion func(err error, pieces [][]byte)

type splitOpts struct {
	logger        *zap.Logger
	writer        PieceWriter
	strictNumeric bool
}

type Option func(*splitOpts)

func WithLogger(logger *zap.Logger) Option {
	return func(o *splitOpts) {
		o.logger = logger
	}
}

// WithPieceWriter replaces the default of writing each piece to a file
// named after it.
func WithPieceWriter(w PieceWriter) Option {
	return func(o *splitOpts) {
		o.writer = w
	}
}

// WithStrictNumericSuffixes makes numeric suffix generation fail with
// ErrSuffixesExhausted when start+index is wider than the suffix length.
// By default only the trailing digits are kept, as split(1) does for
// explicit widths.
func WithStrictNumericSuffixes() Option {
	return func(o *splitOpts) {
		o.strictNumeric = true
	}
}

func newSplitOpts(extra []Option) *splitOpts {
	o := &splitOpts{
		logger: zap.NewNop(),
		writer: fileWriter{persist.NewFileWriter()},
	}
	for _, opt := range extra {
		opt(o)
	}
	return o
}

// Plan is everything a split call decides before touching storage. Names
// is nil when no prefix was configured.
type Plan struct {
	Config *Config
	Pieces [][]byte
	Names  []string
}

// Prepare validates opts, splits buf and, when a prefix is configured,
// names every piece. It performs no I/O.
func Prepare(buf []byte, opts Options, extra ...Option) (*Plan, error) {
	return newSplitOpts(extra).prepare(buf, opts)
}

func (o *splitOpts) prepare(buf []byte, opts Options) (*Plan, error) {
	cfg, err := ParseOptions(opts)
	if err != nil {
		return nil, err
	}

	pieces, err := splitPieces(buf, cfg.Mode)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("split buffer",
		zap.Stringer("mode", cfg.Mode),
		zap.String("size", bytefmt.ByteSize(uint64(len(buf)))),
		zap.Int("pieces", len(pieces)),
	)

	plan := &Plan{Config: cfg, Pieces: pieces}
	if !cfg.HasPrefix {
		return plan, nil
	}

	plan.Names, err = naming.Generate(len(pieces), naming.Spec{
		Prefix:           cfg.Prefix,
		AdditionalSuffix: cfg.AdditionalSuffix,
		SuffixLength:     cfg.SuffixLength,
		Numeric:          cfg.NumericSuffixes,
		NumericStart:     cfg.NumericStart,
		Strict:           o.strictNumeric,
	})
	if errors.Is(err, naming.ErrNameTooLong) {
		// the very first write would fail the same way
		wErr := &WriteError{
			Name: fmt.Sprintf("%s<%d character suffix>%s", cfg.Prefix, cfg.SuffixLength, cfg.AdditionalSuffix),
			Err:  err,
		}
		o.logger.Warn("failed to write piece",
			zap.Int("index", 0),
			zap.String("name", wErr.Name),
			zap.Error(err),
		)
		return nil, wErr
	}
	if err != nil {
		return nil, err
	}

	return plan, nil
}

func (o *splitOpts) write(plan *Plan, idx int) error {
	p := Piece{
		Index: idx,
		Name:  plan.Names[idx],
		Data:  plan.Pieces[idx],
	}

	if err := o.writer.WritePiece(p); err != nil {
		o.logger.Warn("failed to write piece",
			zap.Int("index", idx),
			zap.String("name", p.Name),
			zap.Error(err),
		)
		return &WriteError{Index: idx, Name: p.Name, Err: err}
	}

	o.logger.Debug("wrote piece",
		zap.Int("index", idx),
		zap.String("name", p.Name),
		zap.Int("size", len(p.Data)),
	)
	return nil
}

// SplitSync splits buf and, when opts carry a prefix, writes the pieces one
// after another. The first error of any stage is returned right away;
// files written before a failing write are left in place.
func SplitSync(buf []byte, opts Options, extra ...Option) ([][]byte, error) {
	o := newSplitOpts(extra)

	plan, err := o.prepare(buf, opts)
	if err != nil {
		return nil, err
	}

	for i := range plan.Names {
		if err := o.write(plan, i); err != nil {
			return nil, err
		}
	}

	return plan.Pieces, nil
}

// Split is the non-blocking counterpart of SplitSync. It returns at once;
// validation, splitting and naming run on a separate goroutine, after which
// all pieces are written concurrently. done is invoked exactly once: with
// the first error encountered, or with the pieces once every write
// succeeded. Writes still in flight after a failure run to completion but
// are not reported.
//
// A nil done panics with the error, if any, and otherwise discards the
// result.
func Split(buf []byte, opts Options, done Completion, extra ...Option) {
	if done == nil {
		done = rethrow
	}
	o := newSplitOpts(extra)

	go o.run(buf, opts, done)
}

func (o *splitOpts) run(buf []byte, opts Options, done Completion) {
	plan, err := o.prepare(buf, opts)
	if err != nil {
		done(err, nil)
		return
	}

	if !plan.Config.HasPrefix {
		done(nil, plan.Pieces)
		return
	}

	var reported atomic.Bool
	var eg errgroup.Group

	for i := range plan.Names {
		i := i
		eg.Go(func() error {
			err := o.write(plan, i)
			if err != nil && reported.CompareAndSwap(false, true) {
				done(err, nil)
			}
			return err
		})
	}

	if eg.Wait() == nil && reported.CompareAndSwap(false, true) {
		done(nil, plan.Pieces)
	}
}

func rethrow(err error, _ [][]byte) {
	if err != nil {
		panic(err)
	}
}
