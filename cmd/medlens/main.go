package main

import (
	"os"

	"github.com/YuminosukeSato/medlens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
