// Command fuzzcheck is the fuzz|tmin|cmin|read CLI described in the
// driver's external interface.
package main

import (
	"fmt"
	"os"

	"github.com/covguard/fuzzcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
