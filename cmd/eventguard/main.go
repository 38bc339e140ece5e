// Command eventguard manages calendar events through the access guard.
package main

import (
	"fmt"
	"os"

	"github.com/syssam/eventguard/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
