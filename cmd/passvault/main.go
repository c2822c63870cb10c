package main

import (
	"os"

	"github.com/fahmaliyi/passvault/cli"
)

func main() {
	os.Exit(cli.Execute())
}
