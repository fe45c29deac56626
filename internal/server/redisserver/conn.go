package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/redkv/internal/core/command"
	"github.com/yndnr/redkv/internal/core/domain"
	"github.com/yndnr/redkv/internal/telemetry/logger"
	"github.com/yndnr/redkv/pkg/resp"
)

const (
	readChunkSize = 16 * 1024
	// initialBufSize is the starting capacity of the request buffer.
	initialBufSize = 4 * 1024
	// maxIdleBufSize is the largest buffer kept across requests; bigger
	// ones are dropped once drained so a single large SET does not pin
	// memory for the connection lifetime.
	maxIdleBufSize = 1024 * 1024
)

// conn is a single Redis client connection.
type conn struct {
	id      string
	netConn net.Conn
	bw      *bufio.Writer
	buf     []byte
	chunk   []byte
	scan    resp.Scanner
	ip      string

	closed atomic.Bool
}

func newConn(nc net.Conn) *conn {
	return &conn{
		id:      ulid.Make().String(),
		netConn: nc,
		bw:      bufio.NewWriter(nc),
		buf:     make([]byte, 0, initialBufSize),
		chunk:   make([]byte, readChunkSize),
		ip:      hostOf(nc.RemoteAddr()),
	}
}

func (c *conn) close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	_ = c.netConn.Close()
}

// interrupt unblocks a pending read.
func (c *conn) interrupt() {
	_ = c.netConn.SetReadDeadline(time.Now())
}

// hostOf strips the port from a remote address.
func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// serveConn runs the request loop for one connection until the peer
// leaves, an I/O error occurs, or the server shuts down.
func (s *Server) serveConn(ctx context.Context, c *conn) {
	ctx = logger.WithConnID(ctx, c.id)
	ctx = logger.WithRemoteAddr(ctx, c.netConn.RemoteAddr().String())
	log := logger.L(ctx)
	log.Debug("connection accepted")
	defer log.Debug("connection closed")

	for {
		// Dispatch every complete frame already buffered.
		for len(c.buf) > 0 {
			n, err := c.scan.Scan(c.buf)
			if errors.Is(err, resp.ErrIncomplete) {
				break
			}
			var f resp.Frame
			if err == nil {
				f, _, err = resp.Decode(c.buf[:n])
			}
			if err != nil {
				if !s.protocolError(ctx, c, err) {
					return
				}
				continue
			}
			c.consume(n)

			reply, quit := s.dispatch(ctx, c, f)
			if err := s.write(c, reply); err != nil {
				log.Debug("write failed", "error", err)
				return
			}
			if quit {
				_ = s.flush(c)
				return
			}
		}

		// Flush pending replies before waiting for the next request.
		if err := s.flush(c); err != nil {
			log.Debug("write failed", "error", err)
			return
		}

		if err := s.read(c); err != nil {
			switch {
			case errors.Is(err, io.EOF):
			case s.closing.Load():
			case isTimeout(err):
				log.Debug("connection timed out")
			default:
				log.Debug("connection read error", "error", err)
			}
			return
		}
	}
}

// read appends the next chunk of request bytes to the buffer.
func (s *Server) read(c *conn) error {
	// A partial frame is held to the read timeout; an empty buffer means
	// the client is between requests and only the idle timeout applies.
	timeout := s.cfg.IdleTimeout
	if len(c.buf) > 0 {
		timeout = s.cfg.ReadTimeout
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.netConn.SetReadDeadline(deadline); err != nil {
		return err
	}
	// Checked after the deadline is set so a concurrent interrupt is not lost.
	if s.closing.Load() {
		return net.ErrClosed
	}

	n, err := c.netConn.Read(c.chunk)
	if n > 0 {
		c.buf = append(c.buf, c.chunk[:n]...)
		return nil
	}
	if err == nil {
		return io.ErrNoProgress
	}
	return err
}

// consume drops the first n bytes of the buffer.
func (c *conn) consume(n int) {
	rest := len(c.buf) - n
	if rest == 0 {
		if cap(c.buf) > maxIdleBufSize {
			c.buf = make([]byte, 0, initialBufSize)
		} else {
			c.buf = c.buf[:0]
		}
		return
	}
	copy(c.buf, c.buf[n:])
	c.buf = c.buf[:rest]
}

// protocolError answers a malformed frame and reports whether the
// connection can keep going.
func (s *Server) protocolError(ctx context.Context, c *conn, err error) bool {
	s.metrics.IncProtocolErrors()
	log := logger.L(ctx)

	if errors.Is(err, resp.ErrLimitExceeded) {
		log.Warn("protocol limit exceeded", "error", err)
		_ = s.write(c, command.ErrorReply(domain.ErrFrameTooLarge))
		_ = s.flush(c)
		return false
	}

	log.Debug("protocol error", "error", err)
	// The stream position is unknown after a malformed frame, so the
	// buffered bytes are discarded and decoding restarts on fresh input.
	c.buf = c.buf[:0]
	c.scan.Reset()
	detail := strings.TrimPrefix(err.Error(), resp.ErrProtocol.Error()+": ")
	return s.write(c, command.ErrorReply(domain.ErrProtocol.WithDetails(detail))) == nil
}

// dispatch turns one request frame into a reply. quit reports whether the
// connection should close after the reply is sent.
func (s *Server) dispatch(ctx context.Context, c *conn, f resp.Frame) (reply resp.Frame, quit bool) {
	cmd, err := s.parser.Parse(f)
	if err != nil {
		logger.L(ctx).Debug("command rejected", "error", err)
		return command.ErrorReply(err), false
	}

	if s.limiters != nil && !s.limiters.allow(c.ip) {
		s.metrics.ConnRejected("rate_limit")
		return command.ErrorReply(domain.ErrRateLimited), false
	}

	start := time.Now()
	reply = s.exec.Execute(ctx, cmd)
	_, failed := reply.(resp.Error)
	s.metrics.RecordCommand(cmd.Name(), time.Since(start).Seconds(), failed)

	_, quit = cmd.(command.Quit)
	return reply, quit
}

func (s *Server) write(c *conn, f resp.Frame) error {
	if s.cfg.WriteTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	return resp.Write(c.bw, f)
}

func (s *Server) flush(c *conn) error {
	if c.bw.Buffered() == 0 {
		return nil
	}
	if s.cfg.WriteTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	return c.bw.Flush()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
