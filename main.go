package main

import (
	"os"

	"github.com/conneroisu/sitepanel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
