package main

import (
	"os"

	"github.com/thenoetrevino/clexbrowser/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
