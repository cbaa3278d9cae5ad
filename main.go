package main

import (
	"os"

	"github.com/samuelfneumann/gas/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
