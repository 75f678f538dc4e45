// Package main is the entry point for the lakeload binary.
package main

import (
	"os"

	"lakeload/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
