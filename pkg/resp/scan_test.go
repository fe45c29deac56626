package resp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_MatchesDecode(t *testing.T) {
	inputs := []string{
		"+OK\r\n",
		":-12\r\n",
		"$6\r\nfoobar\r\n",
		"$0\r\n\r\n",
		"$-1\r\n",
		"_\r\n",
		"#t\r\n",
		",1.5\r\n",
		"*0\r\n",
		"*2\r\n*1\r\n:1\r\n_\r\n",
		"*2\r\n*0\r\n*1\r\n*0\r\n",
		"*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
	}

	var s Scanner
	for _, in := range inputs {
		buf := []byte(in + ":1\r\n")
		_, want, err := Decode(buf)
		require.NoError(t, err)

		got, err := s.Scan(buf)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestScanner_GrowingBuffer(t *testing.T) {
	full := []byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")

	var s Scanner
	for i := 0; i < len(full); i++ {
		_, err := s.Scan(full[:i])
		assert.ErrorIs(t, err, ErrIncomplete, "prefix %q", full[:i])
	}
	n, err := s.Scan(full)
	require.NoError(t, err)
	assert.Equal(t, len(full), n)
	assert.Zero(t, s.pos, "scanner restarts after a complete frame")
}

// A large request arriving in read-sized chunks must be scanned once, not
// once per chunk. Accepted bytes are clobbered after every call; any
// re-examination would fail the scan.
func TestScanner_DoesNotRescan(t *testing.T) {
	const items, itemLen, chunk = 20000, 100, 16 * 1024

	args := make([][]byte, items)
	for i := range args {
		args[i] = bytes.Repeat([]byte{'a' + byte(i%26)}, itemLen)
	}
	full := Encode(BulkArray(args...))
	work := append([]byte(nil), full...)

	var s Scanner
	for end := chunk; end < len(work); end += chunk {
		_, err := s.Scan(work[:end])
		require.ErrorIs(t, err, ErrIncomplete)

		// Progress stays within one element of the data available.
		require.GreaterOrEqual(t, s.pos, end-(itemLen+16))
		for i := 0; i < s.pos; i++ {
			work[i] = '!'
		}
	}

	n, err := s.Scan(work)
	require.NoError(t, err)
	assert.Equal(t, len(full), n)

	f, err := DecodeAll(full[:n])
	require.NoError(t, err)
	assert.Len(t, f.(Array), items)
}

func TestScanner_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unknown tag", "?foo\r\n", ErrProtocol},
		{"bad element inside array", "*2\r\n:1\r\n:x\r\n", ErrProtocol},
		{"bulk terminator wrong", "*1\r\n$3\r\nfooXY", ErrProtocol},
		{"negative array length", "*-1\r\n", ErrProtocol},
		{"array too long", "*99999999\r\n", ErrLimitExceeded},
		{"bulk too long", "*1\r\n$999999999999\r\n", ErrLimitExceeded},
		{"nesting too deep", strings.Repeat("*1\r\n", maxDepth+1), ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Scanner
			_, err := s.Scan([]byte(tt.input))
			assert.ErrorIs(t, err, tt.want)

			_, _, decodeErr := Decode([]byte(tt.input))
			assert.ErrorIs(t, decodeErr, tt.want)

			// The scanner starts over after an error.
			n, err := s.Scan([]byte(":1\r\n"))
			require.NoError(t, err)
			assert.Equal(t, 4, n)
		})
	}
}

func TestScanner_Reset(t *testing.T) {
	var s Scanner
	_, err := s.Scan([]byte("*2\r\n:1\r\n"))
	require.ErrorIs(t, err, ErrIncomplete)

	s.Reset()
	n, err := s.Scan([]byte("$2\r\nhi\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}
