package main

import (
	"os"

	"github.com/darkhz/sleepwatch/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
