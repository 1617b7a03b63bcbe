package main

import (
	"os"

	"github.com/surgehttp/surge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
