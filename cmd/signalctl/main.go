package main

import (
	"os"

	"github.com/netem-tools/signalctl/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
