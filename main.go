package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/choirbook/internal/cli"
	"github.com/mrlokans/choirbook/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	config.LoadDotEnv()

	root := cli.NewRootCommand(os.Stdout, cli.BuildInfo{Version: Version, Commit: Commit})
	// If no arguments, run the HTTP server
	if len(os.Args) < 2 {
		root.SetArgs([]string{"serve"})
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
