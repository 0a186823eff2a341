package main

import (
	"os"

	"github.com/MimeLyc/subview/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
