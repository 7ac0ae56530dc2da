package linebytes

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anjor/bufsplit/internal/splitter"
)

func pieces(t *testing.T, size int, buf string) []string {
	s, err := New(size)
	require.NoError(t, err)

	var out []string
	var off int
	err = s.Split([]byte(buf), true, func(c splitter.Chunk) error {
		out = append(out, buf[off:off+c.Size])
		off += c.Size
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestLineBytes(t *testing.T) {
	table := []struct {
		name     string
		size     int
		buf      string
		expected []string
	}{
		{name: "empty", size: 4, buf: "", expected: nil},
		{name: "short lines stay whole", size: 4, buf: "ab\ncd\n", expected: []string{"ab\n", "cd\n"}},
		{name: "long line fragments", size: 4, buf: "abcdefghij\nk\n", expected: []string{"abcd", "efgh", "ij\n", "k\n"}},
		{name: "line-feed lands alone", size: 3, buf: "abc\nd", expected: []string{"abc", "\n", "d"}},
		{name: "no line-feed", size: 2, buf: "abcde", expected: []string{"ab", "cd", "e"}},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, pieces(t, tc.size, tc.buf))
		})
	}
}

func TestLineBytesNeverSpansLines(t *testing.T) {
	buf := "first line is long\nx\n\nsecond one\nlast without feed"
	for size := 1; size < 25; size++ {
		for _, p := range pieces(t, size, buf) {
			require.LessOrEqual(t, len(p), size)
			if i := bytes.IndexByte([]byte(p), '\n'); i >= 0 {
				require.Equal(t, len(p)-1, i, "line-feed must terminate its piece: %q", p)
			}
		}
	}
}
