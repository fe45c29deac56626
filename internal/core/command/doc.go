// Package command turns request frames into typed commands and executes
// them against the keyspace.
//
// The command set is closed: every supported operation is one struct type
// implementing Command, and the Executor handles each with one switch arm.
// Arity and argument kinds are checked by the Parser, so execution never
// re-validates shape.
//
// Names that are not recognized parse into Unknown rather than failing, and
// the Executor answers them with "ERR unknown command".
package command
