package main

import (
	"fmt"
	"os"
)

// sindri - CLI for the Sindri proving API: deploy circuits, request
// proofs, inspect job status, and run a local API emulator.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
