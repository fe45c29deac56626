package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/redkv/pkg/resp"
)

// TextFormatter renders replies the way an interactive client shows them.
type TextFormatter struct{}

// Format writes reply followed by a newline.
func (f *TextFormatter) Format(w io.Writer, reply resp.Frame) error {
	var sb strings.Builder
	writeText(&sb, reply, "")
	_, err := io.WriteString(w, sb.String())
	return err
}

// writeText appends reply. indent is the left margin of continuation lines
// inside nested arrays.
func writeText(sb *strings.Builder, reply resp.Frame, indent string) {
	switch v := reply.(type) {
	case resp.SimpleString:
		sb.WriteString(string(v))
	case resp.Error:
		sb.WriteString("(error) ")
		sb.WriteString(string(v))
	case resp.Integer:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case resp.Boolean:
		fmt.Fprintf(sb, "(%t)", bool(v))
	case resp.Double:
		sb.WriteString("(double) ")
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case resp.BulkString:
		sb.WriteString(Quote(v))
	case resp.Null, resp.NullBulk:
		sb.WriteString("(nil)")
	case resp.Array:
		if len(v) == 0 {
			sb.WriteString("(empty array)\n")
			return
		}
		width := len(strconv.Itoa(len(v)))
		for i, item := range v {
			if i > 0 {
				sb.WriteString(indent)
			}
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			sb.WriteString(prefix)
			writeText(sb, item, indent+strings.Repeat(" ", len(prefix)))
			if _, nested := item.(resp.Array); !nested {
				sb.WriteByte('\n')
			}
		}
		return
	default:
		fmt.Fprintf(sb, "(unknown %T)", reply)
	}
	if indent == "" {
		sb.WriteByte('\n')
	}
}

// Quote renders b as a double-quoted string. Printable ASCII is kept;
// everything else is escaped so binary values stay on one line.
func Quote(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 2)
	sb.WriteByte('"')
	for _, c := range b {
		switch c {
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		default:
			if c >= 0x20 && c < 0x7f {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, `\x%02x`, c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
