package main

import (
	"os"

	"github.com/serptrack/serptrack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
