package output

import (
	"bufio"
	"io"
	"strconv"

	"github.com/yndnr/redkv/pkg/resp"
)

// RawFormatter writes bare values, one per line. Nulls become empty lines
// and nested arrays are flattened.
type RawFormatter struct{}

// Format writes reply.
func (f *RawFormatter) Format(w io.Writer, reply resp.Frame) error {
	bw := bufio.NewWriter(w)
	writeRaw(bw, reply)
	return bw.Flush()
}

func writeRaw(bw *bufio.Writer, reply resp.Frame) {
	switch v := reply.(type) {
	case resp.Array:
		for _, item := range v {
			writeRaw(bw, item)
		}
		return
	case resp.SimpleString:
		bw.WriteString(string(v))
	case resp.Error:
		bw.WriteString(string(v))
	case resp.Integer:
		bw.WriteString(strconv.FormatInt(int64(v), 10))
	case resp.Boolean:
		bw.WriteString(strconv.FormatBool(bool(v)))
	case resp.Double:
		bw.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case resp.BulkString:
		bw.Write(v)
	}
	bw.WriteByte('\n')
}
