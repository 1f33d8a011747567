package main

import (
	"os"

	"github.com/marcelocantos/pipesh/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	os.Exit(cli.Execute())
}
