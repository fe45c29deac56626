// Package domain defines the error taxonomy shared by the keyspace server.
//
// Every failure a client can observe is a *DomainError carrying a unique
// code, a kind and the text placed in the Error reply frame:
//
//   - protocol: malformed or oversized frames
//   - command: unknown commands, wrong arity, bad options
//   - type: operations against a value of the wrong shape
//   - io: snapshot and socket failures
package domain
