package main

import (
	"os"

	"github.com/maelviard/trackcast/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
