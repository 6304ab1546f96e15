package main

import (
	"os"

	"github.com/felixbrock/okrs/internal/cli"
	_ "go.uber.org/automaxprocs"
)

func main() {
	os.Exit(cli.Execute())
}
