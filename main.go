// The main package for the carprice executable.
package main

import (
	"carprice/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
