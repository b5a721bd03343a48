package main

import (
	"os"

	"github.com/voltplan/voltplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
