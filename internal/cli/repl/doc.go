// Package repl provides the interactive mode of redkv-cli.
//
//   - repl.go: the read-eval-print loop
//   - split.go: splitting an input line into command arguments
//   - completer.go: command name lookup for help and hints
//   - history.go: command history persistence
package repl
