package bufsplit

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/anjor/bufsplit/internal/digest"
	"github.com/anjor/bufsplit/internal/util/text"

	"code.cloudfoundry.org/bytefmt"
	"github.com/ipfs/go-qringbuf"
	"github.com/klauspost/cpuid/v2"
)

type pieceStats struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
	Dup    bool   `json:"dup,omitempty"`

	seenKey [digest.SeenKeySize]byte
}

type statSummary struct {
	EventType string `json:"event"`
	Input     struct {
		Size int64 `json:"size"`
	} `json:"input"`
	Output struct {
		Pieces       int64 `json:"pieces"`
		UniquePieces int64 `json:"uniquePieces"`
		Size         int64 `json:"size"`
		Written      bool  `json:"written"`
	} `json:"output"`
	Pieces   []pieceStats `json:"-"`
	SysStats struct {
		qringbuf.Stats
		ElapsedNsecs int64 `json:"elapsedNanoseconds"`

		// getrusage() section
		CpuUserNsecs int64 `json:"cpuUserNanoseconds"`
		CpuSysNsecs  int64 `json:"cpuSystemNanoseconds"`
		MaxRssBytes  int64 `json:"maxMemoryUsed"`
		MinFlt       int64 `json:"cacheMinorFaults"`
		MajFlt       int64 `json:"cacheMajorFaults"`
		BioRead      int64 `json:"blockIoReads,omitempty"`
		BioWrite     int64 `json:"blockIoWrites,omitempty"`
		Sigs         int64 `json:"signalsReceived,omitempty"`
		CtxSwYield   int64 `json:"contextSwitchYields"`
		CtxSwForced  int64 `json:"contextSwitchForced"`

		// for context
		PageSize     int      `json:"pageSize"`
		CPU          string   `json:"cpu"`
		CPUHasSHAExt bool     `json:"cpuHasShaExtensions"`
		GoMaxProcs   int      `json:"goMaxProcs"`
		OS           string   `json:"os"`
		ArgvExpanded []string `json:"argvExpanded"`
		ArgvInitial  []string `json:"argvInitial"`
		GoVersion    string   `json:"goVersion"`
	} `json:"sys"`
}

func setStatSummary() (ss statSummary) {
	ss.EventType = "summary"
	ss.SysStats.ArgvInitial = make([]string, 0)
	ss.SysStats.ArgvExpanded = make([]string, 0)
	ss.SysStats.PageSize = pageSize
	ss.SysStats.CPU = cpuid.CPU.BrandName
	ss.SysStats.CPUHasSHAExt = cpuid.CPU.Supports(cpuid.SHA)
	ss.SysStats.GoMaxProcs = runtime.GOMAXPROCS(-1)
	ss.SysStats.GoVersion = runtime.Version()
	ss.SysStats.OS = runtime.GOOS
	return
}

// set by the platform specific files
var pageSize int

// OutputSummary renders the final statistics to whichever of the
// stats-text and stats-jsonl emitters are active.
func (bs *Bufsplit) OutputSummary() error {

	// no stats emitters - nowhere to output
	if bs.cfg.emitters[emStatsText] == nil && bs.cfg.emitters[emStatsJsonl] == nil {
		return nil
	}

	smr := &bs.statSummary
	smr.Output.Written = !bs.cfg.DryRun

	if w := bs.cfg.emitters[emStatsJsonl]; w != nil {
		jsonl, err := json.Marshal(smr)
		if err != nil {
			return fmt.Errorf("encoding '%s' failed: %w", emStatsJsonl, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", jsonl); err != nil {
			return fmt.Errorf("emitting '%s' failed: %w", emStatsJsonl, err)
		}
	}

	if w := bs.cfg.emitters[emStatsText]; w != nil {
		if err := bs.outputStatsText(w); err != nil {
			return fmt.Errorf("emitting '%s' failed: %w", emStatsText, err)
		}
	}

	return nil
}

func (bs *Bufsplit) outputStatsText(w io.Writer) error {
	smr := &bs.statSummary

	var b strings.Builder

	verb := "Wrote"
	if !smr.Output.Written {
		verb = "Would write"
	}

	fmt.Fprintf(&b, "\nRead %s bytes (%s) of input\n",
		text.Commify64(smr.Input.Size),
		bytefmt.ByteSize(uint64(smr.Input.Size)),
	)
	fmt.Fprintf(&b, "%s %s pieces (%s unique) totalling %s bytes",
		verb,
		text.Commify64(smr.Output.Pieces),
		text.Commify64(smr.Output.UniquePieces),
		text.Commify64(smr.Output.Size),
	)
	if n := len(smr.Pieces); n > 0 {
		fmt.Fprintf(&b, ": %s .. %s", smr.Pieces[0].Name, smr.Pieces[n-1].Name)
	}
	b.WriteString("\n")

	if smr.Output.Pieces > 0 {
		fmt.Fprintf(&b, "Average piece size %s, largest %s\n",
			bytefmt.ByteSize(uint64(smr.Output.Size/smr.Output.Pieces)),
			bytefmt.ByteSize(uint64(bs.largestPiece())),
		)
	}

	sys := &smr.SysStats
	elapsed := time.Duration(sys.ElapsedNsecs)
	fmt.Fprintf(&b, "Processing took %0.2f seconds", elapsed.Seconds())
	if sys.CpuUserNsecs > 0 || sys.CpuSysNsecs > 0 {
		fmt.Fprintf(&b, " using %0.2f vCPU and %0.2f MiB peak memory",
			float64(sys.CpuUserNsecs+sys.CpuSysNsecs)/math.Max(1, float64(sys.ElapsedNsecs)),
			float64(sys.MaxRssBytes)/(1024*1024),
		)
	}
	b.WriteString("\n")

	if elapsed > 0 {
		fmt.Fprintf(&b, "Input throughput %s/s on %s (%d procs)\n\n",
			bytefmt.ByteSize(uint64(float64(smr.Input.Size)/elapsed.Seconds())),
			sys.CPU,
			sys.GoMaxProcs,
		)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (bs *Bufsplit) largestPiece() (max int64) {
	for _, ps := range bs.statSummary.Pieces {
		if ps.Size > max {
			max = ps.Size
		}
	}
	return
}
