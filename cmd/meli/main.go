// Package main is the entry point for the meli CLI.
package main

import (
	"github.com/donaldgifford/meli-client/cmd/meli/cmd"
)

func main() {
	cmd.Execute()
}
