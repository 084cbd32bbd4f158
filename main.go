package main

import (
	"os"

	"github.com/bimmerbailey/logreason/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
