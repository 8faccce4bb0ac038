// Package main provides the entry point for the iTimedIT CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Kieransaunders/iTimedIT-sub000/cmd/itimedit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
