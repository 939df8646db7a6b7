package main

import (
	"os"

	"github.com/varnis/lockdown/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
