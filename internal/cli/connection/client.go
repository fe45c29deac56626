package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yndnr/redkv/pkg/resp"
)

// ErrClosed is returned by Do after Close, or after the server ended the
// connection.
var ErrClosed = errors.New("connection closed")

// DefaultTimeout bounds dialing and each request when no timeout is given.
const DefaultTimeout = 5 * time.Second

// Client is a RESP client. It is safe for concurrent use; requests are
// sent one at a time.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	buf    []byte
	chunk  []byte
	scan   resp.Scanner
	closed bool
}

// Dial connects to addr. A zero timeout uses DefaultTimeout.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		conn:    conn,
		chunk:   make([]byte, 16*1024),
	}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends args as a command and returns the reply. An error reply from
// the server is returned as a resp.Error frame, not as an error.
func (c *Client) Do(args ...string) (resp.Frame, error) {
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(resp.Encode(resp.Command(args...))); err != nil {
		return nil, c.fail(err)
	}

	for {
		if len(c.buf) > 0 {
			n, err := c.scan.Scan(c.buf)
			if err == nil {
				var f resp.Frame
				if f, _, err = resp.Decode(c.buf[:n]); err == nil {
					c.buf = c.buf[:copy(c.buf, c.buf[n:])]
					return f, nil
				}
			}
			if !errors.Is(err, resp.ErrIncomplete) {
				return nil, c.fail(fmt.Errorf("bad reply: %w", err))
			}
		}
		n, err := c.conn.Read(c.chunk)
		c.buf = append(c.buf, c.chunk[:n]...)
		if err != nil && n == 0 {
			return nil, c.fail(err)
		}
	}
}

// fail closes the connection after an I/O error. The stream position is
// unknown at that point.
func (c *Client) fail(err error) error {
	c.closed = true
	_ = c.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return err
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
