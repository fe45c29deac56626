// Package main provides the entry point for redkv-cli.
//
// Usage:
//
//	redkv-cli [-H host] [-p port] [--raw | -o json] [command [arg...]]
//	redkv-cli SET greeting "hello world"
//	redkv-cli                      # interactive mode
package main

import (
	"os"

	"github.com/yndnr/redkv/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
