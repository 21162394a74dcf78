package main

import (
	"fmt"
	"os"
)

// exitCode is set by runBatch before it returns; main reads it once the
// root command has finished. A cobra flag-parsing failure never sets it,
// so it defaults to 2 (the startup-error exit code of spec §6.5).
var exitCode = 2

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode)
	}
	os.Exit(exitCode)
}
