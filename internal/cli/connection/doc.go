// Package connection implements the redkv-cli side of the wire protocol: a
// RESP client that sends one command at a time over TCP and waits for the
// reply.
package connection
