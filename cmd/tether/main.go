// Command tether runs the Slack event engine and its companion tools.
package main

import (
	"fmt"
	"os"

	"tether/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
