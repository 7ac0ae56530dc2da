package stream

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsTTY(t *testing.T) {
	require.False(t, IsTTY(new(bytes.Buffer)))
	require.False(t, IsTTY(nil))

	f, err := os.Create(filepath.Join(t.TempDir(), "regular"))
	require.NoError(t, err)
	defer f.Close()
	require.False(t, IsTTY(f))
}

func TestReadOptimizationsOnRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "regular"))
	require.NoError(t, err)
	defer f.Close()

	s, err := f.Stat()
	require.NoError(t, err)

	for _, opt := range ReadOptimizations {
		if err := opt.Action(f, s); err != nil {
			require.ErrorIs(t, err, os.ErrInvalid, opt.Name)
		}
	}
}
