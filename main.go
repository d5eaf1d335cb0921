package main

import (
	"os"

	"wrtcli/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
