package main

import (
	"os"

	"github.com/qchemtools/corrflux/internal/cli"
	"github.com/qchemtools/corrflux/internal/version"
)

func main() {
	cli.Version = version.Version
	cli.BuildTime = version.BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
