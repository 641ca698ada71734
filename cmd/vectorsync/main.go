// Package main provides the entry point for the vectorsync CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/vectorsync/cmd/vectorsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
