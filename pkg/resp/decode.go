package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits to keep a single peer from exhausting memory.
const (
	// MaxArrayLen limits the number of elements in one array.
	MaxArrayLen = 1024 * 1024

	// MaxBulkLen limits the size of a single bulk string (512MB).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxLineLen limits simple strings, errors and numeric lines (64KB).
	MaxLineLen = 64 * 1024

	// maxDepth limits array nesting.
	maxDepth = 32
)

var (
	ErrIncomplete    = errors.New("resp: incomplete frame")
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

var crlf = []byte("\r\n")

// Decode parses one frame from the start of buf and returns it together
// with the number of bytes it occupied.
//
// When buf holds only a prefix of a valid frame the error is ErrIncomplete
// and the caller should read more bytes and retry with the grown buffer.
// Malformed input yields an error wrapping ErrProtocol or ErrLimitExceeded.
func Decode(buf []byte) (Frame, int, error) {
	d := decoder{buf: buf}
	f, err := d.frame(0)
	if err != nil {
		return nil, 0, err
	}
	return f, d.pos, nil
}

// DecodeAll parses buf as exactly one frame with no trailing bytes.
func DecodeAll(buf []byte) (Frame, error) {
	f, n, err := Decode(buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, protocolErrorf("%d trailing bytes after frame", len(buf)-n)
	}
	return f, nil
}

func protocolErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrProtocol}, args...)...)
}

type decoder struct {
	buf []byte
	pos int
	// skip validates bulk strings without copying their bodies.
	skip bool
}

func (d *decoder) frame(depth int) (Frame, error) {
	if d.pos >= len(d.buf) {
		return nil, ErrIncomplete
	}
	tag := d.buf[d.pos]
	d.pos++

	switch tag {
	case '+':
		line, err := d.line()
		if err != nil {
			return nil, err
		}
		return SimpleString(line), nil
	case '-':
		line, err := d.line()
		if err != nil {
			return nil, err
		}
		return Error(line), nil
	case ':':
		line, err := d.line()
		if err != nil {
			return nil, err
		}
		n, err := parseSigned(line, parseInt64)
		if err != nil {
			return nil, err
		}
		return Integer(n), nil
	case ',':
		line, err := d.line()
		if err != nil {
			return nil, err
		}
		v, err := parseSigned(line, parseFloat64)
		if err != nil {
			return nil, err
		}
		return Double(v), nil
	case '#':
		line, err := d.line()
		if err != nil {
			return nil, err
		}
		switch string(line) {
		case "t":
			return Boolean(true), nil
		case "f":
			return Boolean(false), nil
		}
		return nil, protocolErrorf("invalid boolean %q", line)
	case '_':
		line, err := d.line()
		if err != nil {
			return nil, err
		}
		if len(line) != 0 {
			return nil, protocolErrorf("invalid null %q", line)
		}
		return Null{}, nil
	case '$':
		return d.bulk()
	case '*':
		return d.array(depth)
	default:
		return nil, protocolErrorf("unknown type tag %q", tag)
	}
}

func (d *decoder) bulk() (Frame, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return NullBulk{}, nil
	}
	if n < 0 {
		return nil, protocolErrorf("invalid bulk length %d", n)
	}
	if n > MaxBulkLen {
		return nil, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	end := d.pos + int(n)
	if len(d.buf) < end+len(crlf) {
		// The terminator may already be wrong even though the body is short.
		if len(d.buf) > end && d.buf[end] != '\r' {
			return nil, protocolErrorf("bulk string not terminated at declared length %d", n)
		}
		return nil, ErrIncomplete
	}
	if !bytes.Equal(d.buf[end:end+len(crlf)], crlf) {
		return nil, protocolErrorf("bulk string not terminated at declared length %d", n)
	}

	if d.skip {
		d.pos = end + len(crlf)
		return nil, nil
	}
	body := make([]byte, n)
	copy(body, d.buf[d.pos:end])
	d.pos = end + len(crlf)
	return BulkString(body), nil
}

func (d *decoder) array(depth int) (Frame, error) {
	n, err := d.arrayHeader(depth)
	if err != nil {
		return nil, err
	}

	// Cap the preallocation; the declared count is untrusted until the
	// elements actually arrive.
	out := make(Array, 0, min(int(n), 64))
	for i := int64(0); i < n; i++ {
		f, err := d.frame(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// arrayHeader reads and validates an array's element count. The '*' tag
// has already been taken.
func (d *decoder) arrayHeader(depth int) (int64, error) {
	if depth >= maxDepth {
		return 0, fmt.Errorf("%w: array nesting exceeds %d", ErrLimitExceeded, maxDepth)
	}
	n, err := d.length()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, protocolErrorf("invalid array length %d", n)
	}
	if n > MaxArrayLen {
		return 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}
	return n, nil
}

// length reads the decimal length line of a bulk string or array.
func (d *decoder) length() (int64, error) {
	line, err := d.line()
	if err != nil {
		return 0, err
	}
	return parseSigned(line, parseInt64)
}

// line returns the bytes up to the next CRLF and advances past it.
func (d *decoder) line() ([]byte, error) {
	rest := d.buf[d.pos:]
	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		if len(rest) > MaxLineLen {
			return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
		}
		return nil, ErrIncomplete
	}
	if idx > MaxLineLen {
		return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, MaxLineLen)
	}
	if idx == 0 || rest[idx-1] != '\r' {
		return nil, protocolErrorf("line not terminated by CRLF")
	}
	line := rest[:idx-1]
	if bytes.IndexByte(line, '\r') >= 0 {
		return nil, protocolErrorf("unexpected CR inside line")
	}
	d.pos += idx + 1
	return line, nil
}

// number is the set of numeric payloads sharing the signed-prefix syntax.
type number interface {
	int64 | float64
}

// parseSigned strips an optional leading sign and parses the magnitude with
// parse. The sign is reapplied to the text rather than the value so that the
// full range of the target type (e.g. math.MinInt64) stays representable.
func parseSigned[T number](line []byte, parse func(string) (T, error)) (T, error) {
	var zero T
	neg := false
	digits := line
	if len(digits) > 0 && (digits[0] == '+' || digits[0] == '-') {
		neg = digits[0] == '-'
		digits = digits[1:]
	}
	if len(digits) == 0 || digits[0] == '+' || digits[0] == '-' {
		return zero, protocolErrorf("invalid number %q", line)
	}
	text := string(digits)
	if neg {
		text = "-" + text
	}
	v, err := parse(text)
	if err != nil {
		return zero, protocolErrorf("invalid number %q", line)
	}
	return v, nil
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
