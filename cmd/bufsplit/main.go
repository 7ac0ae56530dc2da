package main

import (
	"fmt"
	"os"

	"github.com/anjor/bufsplit"
	"github.com/anjor/bufsplit/internal/util/stream"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {

	// Parse CLI and initialize everything
	// On error it will os.Exit() on its own
	bs := bufsplit.NewFromArgv(argv)
	defer bs.Destroy()
	logger := bs.Logger()

	in, err := openInput(bs.InputPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "bufsplit: %s\n", err)
		return 1
	}
	defer in.Close() //nolint:errcheck

	inStat, statErr := in.Stat()
	if statErr != nil {
		fmt.Fprintf(os.Stderr, "bufsplit: unexpected error stat()ing input: %s\n", statErr)
		return 1
	}

	if stream.IsTTY(in) {
		fmt.Fprint(
			os.Stderr,
			"------\nYou seem to be feeding data straight from a terminal, an odd choice...\nNevertheless will proceed to read until EOF ( Ctrl+D )\n------\n",
		)
	} else if !inStat.Mode().IsRegular() || inStat.Size() > 16*1024*1024 {
		// An optimization returns os.ErrInvalid when it can't be applied to the file type
		for _, opt := range stream.ReadOptimizations {
			if err := opt.Action(in, inStat); err != nil && err != os.ErrInvalid {
				logger.Warn("failed to apply read optimization hint",
					zap.String("hint", opt.Name),
					zap.Error(err),
				)
			}
		}
	}

	if err := bs.ProcessReader(in, nil); err != nil {
		fmt.Fprintf(os.Stderr, "bufsplit: %s\n", err)
		return 1
	}

	if err := bs.OutputSummary(); err != nil {
		fmt.Fprintf(os.Stderr, "bufsplit: %s\n", err)
		return 1
	}

	return 0
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}
