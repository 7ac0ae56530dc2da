package bufsplit

import (
	"github.com/anjor/bufsplit/internal/constants"

	"github.com/pborman/getopt/v2"
)

type config struct {
	optSet *getopt.Set

	// where to output
	emitters emissionTargets

	// free-form arguments
	inputPath string
	prefix    string

	//
	// Bulk of CLI options definition starts here, the rest further down in initArgvParser()
	//

	Help bool `getopt:"-h --help  Display help"`

	Lines     int    `getopt:"-l --lines=number     Put NUMBER lines/records per output file. Default when no other mode is given: 1000"`
	Bytes     string `getopt:"-b --bytes=size       Put SIZE bytes per output file. SIZE is an integer, optionally followed by K or M (powers of 1024) or KB or MB (powers of 1000)"`
	LineBytes string `getopt:"-C --line-bytes=size  Put at most SIZE bytes of records per output file, never mixing bytes of two lines in one file"`

	SuffixLength     int    `getopt:"-a --suffix-length=N           Generate suffixes of length N. Default: as short as possible, but at least 2"`
	NumericFromZero  bool   `getopt:"-d                             Use numeric suffixes starting at 0, not alphabetic"`
	NumericSuffixes  int    `getopt:"--numeric-suffixes=from        Same as -d, but start numbering at FROM"`
	AdditionalSuffix string `getopt:"--additional-suffix=suffix    Append an additional SUFFIX to file names"`
	StrictNumeric    bool   `getopt:"--strict-numeric-suffixes      Fail instead of dropping leading digits of numeric suffixes wider than the suffix length"`

	AsyncWrites bool `getopt:"--async-writes  Write all output files concurrently instead of one after another"`
	DryRun      bool `getopt:"--dry-run       Split and name the pieces, but do not write any files"`

	LogLevel string `getopt:"--log-level=level  Logging verbosity, one of debug, info, warn, error. Default:"`

	emittersStdErr []string // Emitter spec: option/helptext in initArgvParser()
	emittersStdOut []string // Emitter spec: option/helptext in initArgvParser()

	RingBufferSize     int `getopt:"--ring-buffer-size=[2101248:1073741824]       (EXPERT SETTING) The size of the quantized ring buffer used for reading input, at least twice 1MiB plus --ring-buffer-min-sysread. Default:"`
	RingBufferSectSize int `getopt:"--ring-buffer-sync-size=[4096:1048576]        (EXPERT SETTING) The size of each buffer synchronization sector, must divide 1MiB and --ring-buffer-size. Default:"`
	RingBufferMinRead  int `getopt:"--ring-buffer-min-sysread=[4096:1048576]      (EXPERT SETTING) Perform next read(2) only when the specified amount of free space is available in the buffer. Default:"`

	StatsActive uint `getopt:"--stats-active=uint  A bitfield representing activated stat aggregations: bit0:PieceDedup, bit1:RingbufferTiming. Default:"`

	hashFunc        string // hash function to use: option/helptext in initArgvParser()
	digestMultibase string // digest rendering: option/helptext in initArgvParser()
}

func defaultConfig() config {
	return config{
		emitters: emissionTargets{
			emNone:        nil,
			emStatsText:   nil,
			emStatsJsonl:  nil,
			emPiecesJsonl: nil,
		},
		inputPath:          "-",
		prefix:             defaultPrefix,
		LogLevel:           "warn",
		RingBufferSize:     constants.RingBufferSize,
		RingBufferSectSize: constants.RingBufferSectSize,
		RingBufferMinRead:  constants.RingBufferMinRead,
		StatsActive:        statsPieces,
		hashFunc:           "sha2-256",
		digestMultibase:    "base32",
		emittersStdErr:     []string{emNone},
		emittersStdOut:     []string{emNone},
	}
}
