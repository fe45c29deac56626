package output

import (
	"fmt"
	"io"

	"github.com/yndnr/redkv/pkg/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. An empty name selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatRaw, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, raw or json)", s)
	}
}

// Formatter writes one reply.
type Formatter interface {
	Format(w io.Writer, reply resp.Frame) error
}

// NewFormatter creates a formatter for the given format. Unknown formats
// fall back to text.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatRaw:
		return &RawFormatter{}
	default:
		return &TextFormatter{}
	}
}
