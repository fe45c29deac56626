// Package redisserver serves the keyspace over TCP using the RESP wire
// protocol.
//
// Each accepted connection runs in its own goroutine. Request bytes are
// accumulated into a growable buffer and decoded with pkg/resp; complete
// frames are parsed and executed by internal/core/command and the reply is
// written back before the next read. A malformed frame is answered with an
// "ERR Protocol error" reply and the connection keeps going; a frame that
// exceeds the codec limits closes the connection after the reply.
//
// The server enforces optional read, write and idle deadlines, a per-IP
// command rate and a max-clients limit, and reports connection and command
// metrics to internal/telemetry/metric.
package redisserver
