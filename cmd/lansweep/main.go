// Command lansweep is the entry point for the network scanner CLI.
package main

import (
	"github.com/lansweep/lansweep/cmd/cli"
)

// Build information - set by ldflags during build:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse --short HEAD)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
