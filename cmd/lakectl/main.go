package main

import (
	"os"

	"mobiltex-datalake/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
