package main

import (
	"os"

	"github.com/studorama/studorama/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
