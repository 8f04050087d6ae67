// Command grepcore is a grep-compatible CLI front end over the
// matchset/dispatch/literalsearch/regexengine/pcreadapter stack. Split
// into a tiny main.go (Execute() + exit code) and a root.go carrying the
// flag and RunE wiring, the way a cobra command is conventionally laid
// out across a project's cmd/ package.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "grepcore:", err)
		os.Exit(exitError)
	}
	os.Exit(exitCode)
}
