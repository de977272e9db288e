package main

import (
	"github.com/tokenized/milestone-escrow/cmd/escrow/cmd"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
	buildUser    = "unknown"
)

// Milestone Escrow CLI
//
func main() {
	cmd.SetBuild(buildVersion, buildDate, buildUser)
	cmd.Execute()
}
