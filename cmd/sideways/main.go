// Command sideways finds the longest sideways trend in closing-price data.
package main

import (
	"fmt"
	"os"

	"sideways-trend/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", cli.ColorRed, err, cli.ColorReset)
		os.Exit(1)
	}
}
