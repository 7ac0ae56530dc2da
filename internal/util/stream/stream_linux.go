//go:build linux
// +build linux

package stream

import (
	"os"

	"golang.org/x/sys/unix"
)

func init() {
	ReadOptimizations = append(ReadOptimizations,
		Optimization{
			Name: "sequential read-ahead",
			Action: func(f *os.File, s os.FileInfo) error {
				if !s.Mode().IsRegular() {
					return os.ErrInvalid
				}
				return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
			},
		},
		Optimization{
			Name: "pipe buffer size",
			Action: func(f *os.File, s os.FileInfo) error {
				if s.Mode()&os.ModeNamedPipe == 0 {
					return os.ErrInvalid
				}
				_, err := unix.FcntlInt(f.Fd(), unix.F_SETPIPE_SZ, 1024*1024)
				return err
			},
		},
	)
}
