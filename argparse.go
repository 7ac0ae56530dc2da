package bufsplit

import (
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/anjor/bufsplit/internal/constants"
	"github.com/anjor/bufsplit/internal/digest"
	"github.com/anjor/bufsplit/internal/util/text"

	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	statsPieces = 1 << iota
	statsRingbuf
)

type emissionTargets map[string]io.Writer

const (
	emNone        = "none"
	emStatsText   = "stats-text"
	emStatsJsonl  = "stats-jsonl"
	emPiecesJsonl = "pieces-jsonl"
)

const (
	defaultPrefix = "x"
	defaultLines  = 1000
)

func (cfg *config) printUsage(out io.Writer) {
	cfg.optSet.PrintUsage(out)
	fmt.Fprint(out, "\nWith no INPUT, or when INPUT is -, read standard input.\n\n")
}

func (cfg *config) initArgvParser() {
	// The default documented way of using pborman/options is to muck with globals
	// Operate over objects instead, allowing us to re-parse argv multiple times
	o := getopt.New()
	if err := options.RegisterSet("", cfg, o); err != nil {
		log.Fatalf("option set registration failed: %s", err)
	}
	cfg.optSet = o

	o.SetParameters("[INPUT [PREFIX]]")

	// Several options have the help-text assembled programmatically
	o.FlagLong(&cfg.hashFunc, "hash", 0, "Hash function used for piece digests, one of: "+text.AvailableMapKeys(digest.AvailableHashers)+". Default:",
		"algname",
	)
	o.FlagLong(&cfg.digestMultibase, "digest-multibase", 0, "Multibase used to render piece digests, one of: "+text.AvailableMapKeys(digest.AvailableMultibases)+". Default:",
		"mbname",
	)
	o.FlagLong(&cfg.emittersStdErr, "emit-stderr", 0, fmt.Sprintf(
		"One or more emitters to activate on stdERR. Available emitters are %s. Default: ",
		text.AvailableMapKeys(cfg.emitters),
	), "comma,sep,emitters")
	o.FlagLong(&cfg.emittersStdOut, "emit-stdout", 0,
		"One or more emitters to activate on stdOUT. Available emitters same as above. Default: ",
		"comma,sep,emitters",
	)
}

func (bs *Bufsplit) setupEmitters(stderr, stdout io.Writer) (argErrs []string) {

	activeStderr := make(map[string]bool, len(bs.cfg.emittersStdErr))
	for _, s := range bs.cfg.emittersStdErr {
		activeStderr[s] = true
		if val, exists := bs.cfg.emitters[s]; !exists {
			argErrs = append(argErrs, fmt.Sprintf("invalid emitter '%s' specified for --emit-stderr. Available emitters are: %s",
				s,
				text.AvailableMapKeys(bs.cfg.emitters),
			))
		} else if s == emNone {
			continue
		} else if val != nil {
			argErrs = append(argErrs, fmt.Sprintf("Emitter '%s' specified more than once", s))
		} else {
			bs.cfg.emitters[s] = stderr
		}
	}
	activeStdout := make(map[string]bool, len(bs.cfg.emittersStdOut))
	for _, s := range bs.cfg.emittersStdOut {
		activeStdout[s] = true
		if val, exists := bs.cfg.emitters[s]; !exists {
			argErrs = append(argErrs, fmt.Sprintf("invalid emitter '%s' specified for --emit-stdout. Available emitters are: %s",
				s,
				text.AvailableMapKeys(bs.cfg.emitters),
			))
		} else if s == emNone {
			continue
		} else if val != nil {
			argErrs = append(argErrs, fmt.Sprintf("Emitter '%s' specified more than once", s))
		} else {
			bs.cfg.emitters[s] = stdout
		}
	}

	for _, exclusiveEmitter := range []string{
		emNone,
		emStatsText,
	} {
		if activeStderr[exclusiveEmitter] && len(activeStderr) > 1 {
			argErrs = append(argErrs, fmt.Sprintf(
				"When specified, emitter '%s' must be the sole argument to --emit-stderr",
				exclusiveEmitter,
			))
		}
		if activeStdout[exclusiveEmitter] && len(activeStdout) > 1 {
			argErrs = append(argErrs, fmt.Sprintf(
				"When specified, emitter '%s' must be the sole argument to --emit-stdout",
				exclusiveEmitter,
			))
		}
	}

	return
}

func (bs *Bufsplit) setupDigests() (argErrs []string) {

	if _, exists := digest.AvailableHashers[bs.cfg.hashFunc]; !exists {
		argErrs = append(argErrs, fmt.Sprintf(
			"Hash function '%s' requested via '--hash=algname' is not valid. Available hash names are %s",
			bs.cfg.hashFunc,
			text.AvailableMapKeys(digest.AvailableHashers),
		))
	}

	if f, exists := digest.AvailableMultibases[bs.cfg.digestMultibase]; !exists {
		argErrs = append(argErrs, fmt.Sprintf(
			"Multibase '%s' requested via '--digest-multibase=mbname' is not valid. Available multibases are %s",
			bs.cfg.digestMultibase,
			text.AvailableMapKeys(digest.AvailableMultibases),
		))
	} else {
		bs.formattedDigest = func(d []byte) string {
			if d == nil {
				return "N/A"
			}
			return f(d)
		}
	}

	return
}

func (bs *Bufsplit) setupRingBuffer() (argErrs []string) {
	cfg := bs.cfg

	if cfg.RingBufferSize%cfg.RingBufferSectSize != 0 {
		argErrs = append(argErrs, fmt.Sprintf(
			"--ring-buffer-size '%s' must be a multiple of --ring-buffer-sync-size '%s'",
			text.Commify(cfg.RingBufferSize),
			text.Commify(cfg.RingBufferSectSize),
		))
	}

	if constants.RingBufferMinRegion%cfg.RingBufferSectSize != 0 {
		argErrs = append(argErrs, fmt.Sprintf(
			"--ring-buffer-sync-size '%s' must evenly divide the minimum read region of %s bytes",
			text.Commify(cfg.RingBufferSectSize),
			text.Commify(constants.RingBufferMinRegion),
		))
	}

	if minSize := 2*constants.RingBufferMinRegion + cfg.RingBufferMinRead; cfg.RingBufferSize < minSize {
		argErrs = append(argErrs, fmt.Sprintf(
			"--ring-buffer-size '%s' must be at least twice the minimum read region of %s bytes plus --ring-buffer-min-sysread '%s', i.e. %s",
			text.Commify(cfg.RingBufferSize),
			text.Commify(constants.RingBufferMinRegion),
			text.Commify(cfg.RingBufferMinRead),
			text.Commify(minSize),
		))
	}

	if constants.RingBufferMaxCopy > cfg.RingBufferSize/2 {
		argErrs = append(argErrs, fmt.Sprintf(
			"--ring-buffer-size '%s' must be at least twice the maximum copy of %s bytes",
			text.Commify(cfg.RingBufferSize),
			text.Commify(constants.RingBufferMaxCopy),
		))
	}

	return
}

func (bs *Bufsplit) setupLogger(stderr io.Writer) (argErrs []string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(bs.cfg.LogLevel)); err != nil {
		return []string{fmt.Sprintf("invalid --log-level '%s': %s", bs.cfg.LogLevel, err)}
	}

	bs.logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		zapcore.Lock(zapcore.AddSync(stderr)),
		zap.NewAtomicLevelAt(lvl),
	)).Named("bufsplit")

	return
}

// Translates the parsed CLI state into the loosely typed map understood by
// ParseOptions. Only options actually supplied end up in the map, so that
// mode conflicts are reported by the validator itself.
func (bs *Bufsplit) setupSplitOptions() (argErrs []string) {
	cfg := &bs.cfg
	o := cfg.optSet

	opts := Options{}

	if o.IsSet("lines") {
		opts[OptLines] = cfg.Lines
	}
	if o.IsSet("bytes") {
		opts[OptBytes] = sizeArg(cfg.Bytes)
	}
	if o.IsSet("line-bytes") {
		opts[OptLineBytes] = sizeArg(cfg.LineBytes)
	}
	if !o.IsSet("lines") && !o.IsSet("bytes") && !o.IsSet("line-bytes") {
		opts[OptLines] = defaultLines
	}

	if !cfg.DryRun {
		opts[OptPrefix] = cfg.prefix
	}
	if o.IsSet("suffix-length") {
		opts[OptSuffixLength] = cfg.SuffixLength
	}
	if o.IsSet("numeric-suffixes") {
		if cfg.NumericFromZero {
			argErrs = append(argErrs, "options -d and --numeric-suffixes are mutually exclusive")
		}
		opts[OptNumericSuffixes] = cfg.NumericSuffixes
	} else if cfg.NumericFromZero {
		opts[OptNumericSuffixes] = 0
	}
	if o.IsSet("additional-suffix") {
		opts[OptAdditionalSuffix] = cfg.AdditionalSuffix
	}

	// surface validation problems now, together with everything else
	if _, err := ParseOptions(opts); err != nil {
		argErrs = append(argErrs, err.Error())
	}

	bs.splitOptions = opts
	bs.splitExtra = []Option{
		WithLogger(bs.logger),
		WithPieceWriter(bs),
	}
	if cfg.StrictNumeric {
		bs.splitExtra = append(bs.splitExtra, WithStrictNumericSuffixes())
	}

	return
}

// A bare integer on the command line means bytes, while the library only
// accepts unit-suffixed strings.
func sizeArg(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
