package output

import (
	"encoding/json"
	"io"
	"unicode/utf8"

	"github.com/yndnr/redkv/pkg/resp"
)

// JSONFormatter formats replies as JSON.
type JSONFormatter struct{}

type jsonError struct {
	Error string `json:"error"`
}

// Format writes reply as one line of JSON. Errors become {"error": ...}
// objects and nulls become null.
func (f *JSONFormatter) Format(w io.Writer, reply resp.Frame) error {
	return json.NewEncoder(w).Encode(toJSON(reply))
}

func toJSON(reply resp.Frame) any {
	switch v := reply.(type) {
	case resp.SimpleString:
		return string(v)
	case resp.Error:
		return jsonError{Error: string(v)}
	case resp.Integer:
		return int64(v)
	case resp.Boolean:
		return bool(v)
	case resp.Double:
		return float64(v)
	case resp.BulkString:
		// Non UTF-8 values are emitted as byte arrays instead of being
		// silently mangled by the encoder.
		if !utf8.Valid(v) {
			out := make([]int, len(v))
			for i, c := range v {
				out[i] = int(c)
			}
			return out
		}
		return string(v)
	case resp.Array:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = toJSON(item)
		}
		return out
	default:
		return nil
	}
}
