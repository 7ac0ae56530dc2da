package bufsplit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anjor/bufsplit/internal/constants"
)

// four identical 1KiB blocks followed by a short distinct tail
func samplePayload() []byte {
	return append(
		bytes.Repeat([]byte{'a'}, 4*1024),
		bytes.Repeat([]byte{'b'}, 500)...,
	)
}

func runArgv(t *testing.T, argv []string, input []byte) (stderr, stdout *bytes.Buffer, err error) {
	t.Helper()

	stderr, stdout = new(bytes.Buffer), new(bytes.Buffer)
	bs, errs := NewFromArgvWithWriters(append([]string{"bufsplit"}, argv...), stderr, stdout)
	require.Empty(t, errs, stderr.String())
	require.NotNil(t, bs)

	err = bs.ProcessReader(bytes.NewReader(input), nil)
	bs.Destroy()
	if err == nil {
		err = bs.OutputSummary()
	}
	return
}

func TestDeterministicPieceManifest(t *testing.T) {
	const testIterations = 10

	prefix := filepath.Join(t.TempDir(), "part-")
	payload := samplePayload()

	for _, async := range []bool{false, true} {
		argv := []string{"-b", "1K", "--emit-stdout=pieces-jsonl"}
		if async {
			argv = append(argv, "--async-writes")
		}
		argv = append(argv, "-", prefix)

		var first [32]byte
		for iter := 0; iter < testIterations; iter++ {
			_, stdout, err := runArgv(t, argv, payload)
			require.NoError(t, err)

			current := sha256.Sum256(stdout.Bytes())
			if iter == 0 {
				first = current
				continue
			}
			require.Equal(t, first, current,
				"iteration %d (async: %t): manifest sum %s does not match first %s",
				iter, async, hex.EncodeToString(current[:]), hex.EncodeToString(first[:]),
			)
		}
	}
}

func TestProcessReaderWritesFiles(t *testing.T) {
	for _, async := range []bool{false, true} {
		iterations := 1
		if async {
			iterations = 20
		}
		for iter := 0; iter < iterations; iter++ {
			checkWrittenFiles(t, async)
		}
	}
}

func checkWrittenFiles(t *testing.T, async bool) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "part-")

	argv := []string{"-b", "1K", "--emit-stdout=pieces-jsonl,stats-jsonl"}
	if async {
		argv = append(argv, "--async-writes")
	}
	_, stdout, err := runArgv(t, append(argv, "-", prefix), samplePayload())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 6)

	wantNames := []string{"part-aa", "part-ab", "part-ac", "part-ad", "part-ae"}
	for i, name := range wantNames {
		var p struct {
			Event string `json:"event"`
			Index int    `json:"index"`
			Name  string `json:"name"`
			Size  int64  `json:"size"`
			Dup   bool   `json:"dup"`
		}
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &p))
		require.Equal(t, "piece", p.Event)
		require.Equal(t, i, p.Index)
		require.Equal(t, filepath.Join(dir, name), p.Name)
		require.Equal(t, i > 0 && i < 4, p.Dup, "async: %t, piece %d", async, i)

		content, err := os.ReadFile(p.Name)
		require.NoError(t, err)
		require.EqualValues(t, p.Size, len(content))
	}

	var summary statSummary
	require.NoError(t, json.Unmarshal([]byte(lines[5]), &summary))
	require.Equal(t, "summary", summary.EventType)
	require.EqualValues(t, 4*1024+500, summary.Input.Size)
	require.EqualValues(t, 5, summary.Output.Pieces)
	require.EqualValues(t, 2, summary.Output.UniquePieces)
	require.EqualValues(t, 4*1024+500, summary.Output.Size)
	require.True(t, summary.Output.Written)
}

func randomPayload(size int) []byte {
	buf := make([]byte, size)
	rand.New(rand.NewSource(int64(size))).Read(buf) //nolint:errcheck
	return buf
}

func TestSlurpReproducesInput(t *testing.T) {
	for _, size := range []int{
		0,
		1,
		constants.ReadRegionSize,
		constants.RingBufferSize - 1,
		constants.RingBufferSize + 1,
		10 * 1024 * 1024,
	} {
		bs, errs := NewFromArgvWithWriters([]string{"bufsplit"}, new(bytes.Buffer), new(bytes.Buffer))
		require.Empty(t, errs)

		payload := randomPayload(size)
		got, err := bs.slurp(bytes.NewReader(payload))
		require.NoError(t, err, "size %d", size)
		require.True(t, bytes.Equal(payload, got), "size %d: read back %d bytes", size, len(got))
	}
}

func TestProcessReaderLargeInput(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "big.")
	payload := randomPayload(10*1024*1024 + 7)

	for _, argv := range [][]string{
		{"-b", "1M", "--emit-stdout=stats-jsonl"},
		{"-b", "1M", "--emit-stdout=stats-jsonl", "--async-writes",
			"--ring-buffer-size=2105344", "--ring-buffer-sync-size=4096", "--ring-buffer-min-sysread=4096"},
	} {
		_, stdout, err := runArgv(t, append(argv, "-", prefix), payload)
		require.NoError(t, err)

		var summary statSummary
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
		require.EqualValues(t, len(payload), summary.Input.Size)
		require.EqualValues(t, 11, summary.Output.Pieces)

		var reassembled []byte
		for _, suffix := range []string{"aa", "ab", "ac", "ad", "ae", "af", "ag", "ah", "ai", "aj", "ak"} {
			part, err := os.ReadFile(prefix + suffix)
			require.NoError(t, err)
			reassembled = append(reassembled, part...)
		}
		require.True(t, bytes.Equal(payload, reassembled))
	}
}

func TestAsyncWriteFailureLeavesSummaryEmpty(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "p")
	// a directory where a piece should go makes exactly that write fail
	require.NoError(t, os.Mkdir(prefix+"ab", 0o755))

	stderr, stdout := new(bytes.Buffer), new(bytes.Buffer)
	bs, errs := NewFromArgvWithWriters(
		[]string{"bufsplit", "-b", "1", "--async-writes", "--emit-stdout=stats-jsonl", "-", prefix},
		stderr, stdout,
	)
	require.Empty(t, errs)

	err := bs.ProcessReader(bytes.NewReader(bytes.Repeat([]byte{'q'}, 64)), nil)
	require.ErrorIs(t, err, ErrWriteFailure)
	require.ErrorContains(t, err, prefix+"ab")

	// nothing is written once ProcessReader has returned
	before, err := os.ReadDir(dir)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))

	require.NoError(t, bs.OutputSummary())
	bs.Destroy()

	var summary statSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.EqualValues(t, 64, summary.Input.Size)
	require.Zero(t, summary.Output.Pieces)
	require.Zero(t, summary.Output.UniquePieces)
}

func TestDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck

	stderr, _, err := runArgv(t,
		[]string{"--dry-run", "-l", "2", "--emit-stderr=stats-text"},
		[]byte("1\n2\n3\n4\n5"),
	)
	require.NoError(t, err)
	require.Contains(t, stderr.String(), "Would write 3 pieces")
	require.Contains(t, stderr.String(), "xaa .. xac")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestEventChannel(t *testing.T) {
	stderr, stdout := new(bytes.Buffer), new(bytes.Buffer)
	bs, errs := NewFromArgvWithWriters([]string{"bufsplit", "--dry-run", "-C", "2", "--hash=none"}, stderr, stdout)
	require.Empty(t, errs)

	events := make(chan IngestionEvent, 16)
	require.NoError(t, bs.ProcessReader(strings.NewReader("abc\nd\n"), events))

	var got []string
	for ev := range events {
		require.Equal(t, NewPieceJsonl, ev.Type)
		got = append(got, ev.Body)
	}
	require.Len(t, got, 3)
	require.Contains(t, got[0], `"digest":"N/A"`)
	require.Contains(t, got[2], `"name":"xac"`)
}

func TestSplitErrorsSurface(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "p")

	_, _, err := runArgv(t, []string{"-b", "1", "-a", "1", "-", prefix}, bytes.Repeat([]byte{'z'}, 27))
	require.ErrorIs(t, err, ErrSuffixesExhausted)

	_, _, err = runArgv(t,
		[]string{"-b", "1", "-a", "1", "--numeric-suffixes=9", "--strict-numeric-suffixes", "-", prefix},
		[]byte("zz"),
	)
	require.ErrorIs(t, err, ErrSuffixesExhausted)

	_, _, err = runArgv(t, []string{"-l", "1", "-", filepath.Join(prefix, "missing", "dir")}, []byte("a\n"))
	require.ErrorIs(t, err, ErrWriteFailure)
}

func TestArgvErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		argv []string
		want string
	}{
		{"conflicting modes", []string{"-l", "2", "-b", "10"}, "multiple modes"},
		{"bad size", []string{"-b", "1GB"}, "invalid size"},
		{"zero lines", []string{"-l", "0"}, "invalid count"},
		{"bad hash", []string{"--hash=md4"}, "Hash function 'md4'"},
		{"bad multibase", []string{"--digest-multibase=base58"}, "Multibase 'base58'"},
		{"bad emitter", []string{"--emit-stdout=bogus"}, "invalid emitter 'bogus'"},
		{"exclusive emitter", []string{"--emit-stderr=none,stats-jsonl"}, "must be the sole argument"},
		{"bad log level", []string{"--log-level=loud"}, "invalid --log-level"},
		{"numeric twice", []string{"-d", "--numeric-suffixes=3"}, "mutually exclusive"},
		{"too many args", []string{"in", "prefix", "extra"}, "unexpected free-form"},
		{"ring buffer range", []string{"--ring-buffer-size=1024"}, "out of range"},
		{"ring buffer below regions", []string{"--ring-buffer-size=2101248"}, "must be at least twice the minimum read region"},
		{"ring buffer min read too large", []string{"--ring-buffer-min-sysread=1048576"}, "must be at least twice the minimum read region"},
		{"ring buffer sector not dividing", []string{"--ring-buffer-size=2383872", "--ring-buffer-sync-size=12288"}, "must evenly divide"},
		{"ring buffer sector range", []string{"--ring-buffer-sync-size=2097152"}, "out of range"},
		{"dry run prefix", []string{"--dry-run", "in", "prefix"}, "makes no sense"},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			stderr := new(bytes.Buffer)
			_, errs := NewFromArgvWithWriters(append([]string{"bufsplit"}, tt.argv...), stderr, new(bytes.Buffer))
			require.NotEmpty(t, errs)
			require.Contains(t, strings.Join(errs, "\n"), tt.want)
			require.Contains(t, stderr.String(), "Fatal error parsing arguments")
		})
	}
}

func TestHelp(t *testing.T) {
	stderr := new(bytes.Buffer)
	bs, errs := NewFromArgvWithWriters([]string{"bufsplit", "--help"}, stderr, new(bytes.Buffer))
	require.Nil(t, bs)
	require.Empty(t, errs)
	require.Contains(t, stderr.String(), "--line-bytes")
	require.Contains(t, stderr.String(), "[INPUT [PREFIX]]")
}

func TestArgvDefaults(t *testing.T) {
	stderr, stdout := new(bytes.Buffer), new(bytes.Buffer)
	bs, errs := NewFromArgvWithWriters([]string{"bufsplit"}, stderr, stdout)
	require.Empty(t, errs)
	require.Equal(t, "-", bs.InputPath())
	require.Equal(t, Options{OptLines: defaultLines, OptPrefix: defaultPrefix}, bs.splitOptions)

	bs, errs = NewFromArgvWithWriters([]string{"bufsplit", "-d", "-b", "2K", "--additional-suffix=.part", "in.dat", "out-"}, stderr, stdout)
	require.Empty(t, errs)
	require.Equal(t, "in.dat", bs.InputPath())
	require.Equal(t, Options{
		OptBytes:            "2K",
		OptPrefix:           "out-",
		OptNumericSuffixes:  0,
		OptAdditionalSuffix: ".part",
	}, bs.splitOptions)

	bs, errs = NewFromArgvWithWriters([]string{"bufsplit", "-b", "100"}, stderr, stdout)
	require.Empty(t, errs)
	require.Equal(t, int64(100), bs.splitOptions[OptBytes])
}
