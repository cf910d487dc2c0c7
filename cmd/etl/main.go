// Package main is the entry point for the etl binary.
package main

import (
	"os"

	cli "infra-etl/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
