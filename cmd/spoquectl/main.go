package main

import (
	"fmt"
	"os"

	"masterboxer.com/project-spoque/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
