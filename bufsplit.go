package bufsplit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/anjor/bufsplit/internal/digest"
	"github.com/anjor/bufsplit/internal/persist"
	"github.com/anjor/bufsplit/internal/util/argparser"

	"github.com/pborman/getopt/v2"
	"go.uber.org/zap"
)

type seenPieces map[[digest.SeenKeySize]byte]struct{}

// Bufsplit is the command line driver around SplitSync and Split: it reads
// an input stream in full, splits it and reports on what was written.
type Bufsplit struct {
	cfg              config
	splitOptions     Options
	splitExtra       []Option
	logger           *zap.Logger
	statSummary      statSummary
	formattedDigest  func([]byte) string
	externalEventBus chan<- IngestionEvent
	fileWriter       *persist.FileWriter
	mu               sync.Mutex
	pieces           map[int]pieceStats
	writesClosed     bool
	writesInFlight   sync.WaitGroup
}

func newBufsplit() *Bufsplit {
	return &Bufsplit{
		cfg:         defaultConfig(),
		statSummary: setStatSummary(),
		logger:      zap.NewNop(),
		fileWriter:  persist.NewFileWriter(),
	}
}

// NewFromArgv parses a full argv, exiting the program on --help (code 0)
// or on any argument error (code 2).
func NewFromArgv(argv []string) *Bufsplit {
	bs, argErrs := NewFromArgvWithWriters(argv, os.Stderr, os.Stdout)
	if len(argErrs) > 0 {
		os.Exit(2)
	}
	if bs == nil {
		os.Exit(0)
	}
	return bs
}

// NewFromArgvWithWriters is NewFromArgv with the standard streams replaced
// and without exiting. Usage and argument errors are printed to stderr and
// the errors are also returned. When help was requested both return values
// are nil.
func NewFromArgvWithWriters(argv []string, stderr, stdout io.Writer) (*Bufsplit, []string) {

	bs := newBufsplit()
	bs.statSummary.SysStats.ArgvInitial = getInitialArgs(argv)

	cfg := &bs.cfg
	cfg.initArgvParser()

	// accumulator for multiple errors, to present to the user all at once
	argParseErrs := argparser.Parse(argv, cfg.optSet, 2)

	if cfg.Help {
		cfg.printUsage(stderr)
		return nil, nil
	}

	if free := cfg.optSet.Args(); len(free) > 0 {
		cfg.inputPath = free[0]
		if len(free) > 1 {
			cfg.prefix = free[1]
			if cfg.DryRun {
				argParseErrs = append(argParseErrs, "a PREFIX makes no sense together with --dry-run")
			}
		}
	}

	argParseErrs = append(argParseErrs, bs.setupLogger(stderr)...)
	argParseErrs = append(argParseErrs, bs.setupDigests()...)
	argParseErrs = append(argParseErrs, bs.setupRingBuffer()...)
	argParseErrs = append(argParseErrs, bs.setupEmitters(stderr, stdout)...)
	argParseErrs = append(argParseErrs, bs.setupSplitOptions()...)

	if len(argParseErrs) > 0 {
		logArgParseErrors(stderr, argParseErrs, cfg)
		return bs, argParseErrs
	}

	// Opts check out - take a snapshot of what we ended up with
	cfg.optSet.VisitAll(func(o getopt.Option) {
		if o.LongName() == "help" {
			return
		}
		bs.statSummary.SysStats.ArgvExpanded = append(
			bs.statSummary.SysStats.ArgvExpanded, fmt.Sprintf(`%s=%s`,
				o.Name(),
				o.Value().String(),
			),
		)
	})
	sort.Strings(bs.statSummary.SysStats.ArgvExpanded)

	return bs, nil
}

func logArgParseErrors(out io.Writer, argParseErrs []string, cfg *config) {
	sort.Strings(argParseErrs)
	fmt.Fprintf(out,
		"\nFatal error parsing arguments:\n\t%s\n\n",
		strings.Join(argParseErrs, "\n\t"),
	)
	cfg.printUsage(out)
}

func getInitialArgs(argv []string) []string {
	if len(argv) < 2 {
		return []string{}
	}
	init := make([]string, len(argv)-1)
	copy(init, argv[1:])
	return init
}

// InputPath is the INPUT argument, "-" for standard input.
func (bs *Bufsplit) InputPath() string { return bs.cfg.inputPath }

func (bs *Bufsplit) Logger() *zap.Logger { return bs.logger }

func (bs *Bufsplit) Destroy() {
	bs.mu.Lock()
	bs.logger.Sync() //nolint:errcheck
	bs.mu.Unlock()
}
