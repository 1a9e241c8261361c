// Command nbtemplates serves notebook templates to notebook front ends.
package main

import (
	"fmt"
	"os"

	"github.com/opencode-ai/nbtemplates/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
