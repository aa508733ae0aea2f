// Command posy assembles bouquets from a stream of flower stem arrivals.
package main

import (
	"fmt"
	"os"

	"posy/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
