// Command skema validates documents against the built-in patient schemas or
// schemas loaded from a YAML schema file, prints JSON Schema, and serves the
// same over HTTP.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee exitError
		if !errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
