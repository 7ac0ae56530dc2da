package lines

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anjor/bufsplit/internal/splitter"
)

func pieces(t *testing.T, count int, buf string, entire bool) []string {
	s, err := New(count)
	require.NoError(t, err)

	var out []string
	var off int
	err = s.Split([]byte(buf), entire, func(c splitter.Chunk) error {
		out = append(out, buf[off:off+c.Size])
		off += c.Size
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestLines(t *testing.T) {
	table := []struct {
		name     string
		count    int
		buf      string
		expected []string
	}{
		{name: "empty", count: 1, buf: "", expected: nil},
		{name: "one per piece", count: 1, buf: "a\nb\nc\n", expected: []string{"a\n", "b\n", "c\n"}},
		{name: "partial tail", count: 1, buf: "a\nb\nc", expected: []string{"a\n", "b\n", "c"}},
		{name: "no line-feed", count: 3, buf: "abc", expected: []string{"abc"}},
		{name: "two per piece", count: 2, buf: "a\nb\nc\nd\ne\n", expected: []string{"a\nb\n", "c\nd\n", "e\n"}},
		{name: "blank lines", count: 2, buf: "\n\n\n", expected: []string{"\n\n", "\n"}},
		{name: "more lines requested than present", count: 10, buf: "a\nb\n", expected: []string{"a\nb\n"}},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, pieces(t, tc.count, tc.buf, true))
		})
	}
}

func TestLinesWithholdsPartialTail(t *testing.T) {
	require.Equal(t, []string{"a\n", "b\n"}, pieces(t, 1, "a\nb\nc", false))
	require.Equal(t, []string{"a\nb\n"}, pieces(t, 2, "a\nb\nc\n", false))
}
