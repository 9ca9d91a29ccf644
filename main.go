// Command pystand downloads, installs, updates, and removes pre-built
// Python versions published by python-build-standalone.
package main

import "github.com/pystand/pystand/cmd"

func main() {
	cmd.Execute()
}
