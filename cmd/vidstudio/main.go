package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		// Interrupt shutdowns already logged their reason.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "vidstudio: %v\n", err)
		}
		return 1
	}
	return 0
}
