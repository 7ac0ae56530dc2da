package constants

import (
	"os"
	"strconv"
)

const (
	// Largest integer a float64 carries without loss (2^53 - 1). Every
	// count, width and suffix numeral is bounded by it.
	MaxSafeInteger = 1<<53 - 1

	// No path can be longer than this (Linux PATH_MAX), so a suffix this
	// wide can never be created.
	MaxSuffixLength = 4096

	// Ingestion ring buffer geometry, see ingest.go. The ring buffer
	// must hold at least 2*MinRegion+MinRead bytes.
	ReadRegionSize      = 1024 * 1024
	RingBufferMinRegion = ReadRegionSize
	RingBufferMaxCopy   = ReadRegionSize
	RingBufferMinRead   = 256 * 1024
	RingBufferSize      = 2*RingBufferMinRegion + RingBufferMinRead
	RingBufferSectSize  = 64 * 1024
)

type Incomparabe [0]func()

var LongTests bool
var VeryLongTests bool

func init() {
	VeryLongTests = isTruthy("TEST_BUFSPLIT_VERY_LONG")
	LongTests = VeryLongTests || isTruthy("TEST_BUFSPLIT_LONG")
}

func isTruthy(varname string) bool {
	envStr := os.Getenv(varname)
	if envStr != "" {
		if num, err := strconv.ParseUint(envStr, 10, 64); err != nil || num != 0 {
			return true
		}
	}
	return false
}

var PerformSanityChecks = true
