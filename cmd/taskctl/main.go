// Command taskctl is a terminal client for the TaskMaster API.
package main

import (
	"fmt"
	"os"

	"github.com/CodeineSolm/taskmaster/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
