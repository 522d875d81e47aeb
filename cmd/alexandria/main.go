package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("alexandria: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "alexandria",
		Usage:   "Personal screen memory daemon: capture, OCR, classify, search",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Commands: []*cli.Command{
			runCmd(),
			captureCmd(),
			serveCmd(),
			stopCmd(),
			statusCmd(),
			configCmd(),
			searchCmd(),
			listCmd(),
			deleteCmd(),
			cleanupCmd(),
			statsCmd(),
		},
	}
}
