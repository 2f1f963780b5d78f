// Package main provides the entry point for the hotness-cli binary.
package main

import (
	"os"

	"github.com/wangsibothunder/retrieval-hotness/cmd/hotness-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
