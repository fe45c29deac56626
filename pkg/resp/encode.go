package resp

import (
	"bufio"
	"math"
	"strconv"
	"strings"
)

// Encode returns the wire encoding of f.
func Encode(f Frame) []byte {
	return AppendFrame(nil, f)
}

// AppendFrame appends the wire encoding of f to dst.
//
// SimpleString and Error are single-line by definition; CR and LF inside
// them are replaced by spaces so the output always stays parseable.
func AppendFrame(dst []byte, f Frame) []byte {
	switch v := f.(type) {
	case SimpleString:
		dst = append(dst, '+')
		dst = appendLine(dst, string(v))
	case Error:
		dst = append(dst, '-')
		dst = appendLine(dst, string(v))
	case Integer:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, int64(v), 10)
		dst = append(dst, crlf...)
	case Boolean:
		if v {
			dst = append(dst, "#t\r\n"...)
		} else {
			dst = append(dst, "#f\r\n"...)
		}
	case Double:
		dst = append(dst, ',')
		dst = appendDouble(dst, float64(v))
		dst = append(dst, crlf...)
	case BulkString:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v...)
		dst = append(dst, crlf...)
	case NullBulk:
		dst = append(dst, "$-1\r\n"...)
	case Null:
		dst = append(dst, "_\r\n"...)
	case Array:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v)), 10)
		dst = append(dst, crlf...)
		for _, item := range v {
			dst = AppendFrame(dst, item)
		}
	case nil:
		dst = append(dst, "_\r\n"...)
	}
	return dst
}

// Write encodes f onto w. The caller owns flushing.
func Write(w *bufio.Writer, f Frame) error {
	_, err := w.Write(Encode(f))
	return err
}

var lineReplacer = strings.NewReplacer("\r", " ", "\n", " ")

func appendLine(dst []byte, s string) []byte {
	if strings.ContainsAny(s, "\r\n") {
		s = lineReplacer.Replace(s)
	}
	dst = append(dst, s...)
	return append(dst, crlf...)
}

func appendDouble(dst []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, "nan"...)
	case math.IsInf(v, 1):
		return append(dst, "inf"...)
	case math.IsInf(v, -1):
		return append(dst, "-inf"...)
	}
	if v == 0 && math.Signbit(v) {
		return append(dst, "-0"...)
	}
	return strconv.AppendFloat(dst, v, 'g', -1, 64)
}
