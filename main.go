// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Passkeep.
//
// Usage:
//
//	go run . [flags]
//	./passkeep [flags]
//
// This launches the Passkeep CLI. See --help for options.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/passkeep/passkeep/ui/cli"
)

// version is set at build time using -ldflags, e.g.:
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

// main is the entrypoint for the Passkeep CLI.
func main() {
	if os.Getenv("PASSKEEP_SHOW_VERSION") == "1" {
		fmt.Fprintf(os.Stderr, "Passkeep version: %s\n", version)
	}

	if err := cli.Execute(); err != nil {
		log.Printf("Passkeep CLI error: %v", err)
		os.Exit(1)
	}
}
