// Package command defines the redkv-cli application.
//
// With arguments, the CLI sends them as one command and prints the reply.
// Without arguments it starts the interactive REPL.
package command
