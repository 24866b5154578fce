package main

import (
	"github.com/oshokin/doorbell-panel/cmd/doorbell-panel/cmd"
)

func main() {
	cmd.Execute()
}
