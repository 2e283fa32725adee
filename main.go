// The main package for the siteanalyzer executable.
package main

import (
	"github.com/bct-dk/siteanalyzer/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
