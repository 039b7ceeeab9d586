package main

import (
	"os"

	"github.com/mayssameid/Clash-of-Digits/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
