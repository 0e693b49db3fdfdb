package main

import (
	"fmt"
	"os"
)

// idproof - CLI tool and API service for identity-document proof inputs
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
