// Package main implements the py-dataflow-query CLI (pdq).
// It computes def→use dataflow edges for Python source and derives
// backward slices from them.
package main

import (
	"os"

	"github.com/l3aro/py-dataflow-query/cmd/pdq/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`pdq version {{.Version}}
`)
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
