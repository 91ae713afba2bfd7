package main

import (
	"github.com/ssargent/warcpack/cmd/warcpack/cmd"
)

func main() {
	cmd.Execute()
}
