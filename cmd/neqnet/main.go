// Command neqnet solves pipeline and well-gathering networks described in YAML.
package main

import "github.com/equinor/neqnet/cmd/neqnet/commands"

func main() {
	commands.Execute()
}
