package main

import (
	"os"

	"github.com/edumeet/edumeet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
