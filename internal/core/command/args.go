package command

import (
	"strconv"

	"github.com/yndnr/redkv/internal/core/domain"
	"github.com/yndnr/redkv/pkg/resp"
)

// Args is a cursor over the arguments of one request, after the command
// name. Every take fails with a DomainError instead of panicking.
type Args struct {
	name  string
	items resp.Array
	pos   int
}

func newArgs(name string, items resp.Array) *Args {
	return &Args{name: name, items: items}
}

// Remaining returns the number of arguments not yet taken.
func (a *Args) Remaining() int {
	return len(a.items) - a.pos
}

// Done reports whether every argument has been taken.
func (a *Args) Done() bool {
	return a.pos >= len(a.items)
}

// NextBytes takes the next argument as raw bytes.
func (a *Args) NextBytes() ([]byte, error) {
	if a.Done() {
		return nil, a.arity()
	}
	f := a.items[a.pos]
	a.pos++
	b, ok := stringLike(f)
	if !ok {
		return nil, domain.ErrArgKind.WithDetails("(got " + f.Kind().String() + ")")
	}
	return b, nil
}

// NextText takes the next argument as text.
func (a *Args) NextText() (string, error) {
	b, err := a.NextBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NextInt takes the next argument as a base-10 signed integer.
func (a *Args) NextInt() (int64, error) {
	s, err := a.NextText()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.ErrNotInteger
	}
	return n, nil
}

// Rest takes every remaining argument as text. At least one must remain.
func (a *Args) Rest() ([]string, error) {
	if a.Done() {
		return nil, a.arity()
	}
	out := make([]string, 0, a.Remaining())
	for !a.Done() {
		s, err := a.NextText()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// RestBytes takes every remaining argument as bytes. At least one must
// remain.
func (a *Args) RestBytes() ([][]byte, error) {
	if a.Done() {
		return nil, a.arity()
	}
	out := make([][]byte, 0, a.Remaining())
	for !a.Done() {
		b, err := a.NextBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// End fails when arguments are left over.
func (a *Args) End() error {
	if !a.Done() {
		return a.arity()
	}
	return nil
}

func (a *Args) arity() error {
	return domain.ErrWrongArity.WithDetails("for '" + a.name + "' command")
}

func stringLike(f resp.Frame) ([]byte, bool) {
	switch v := f.(type) {
	case resp.BulkString:
		return v, true
	case resp.SimpleString:
		return []byte(v), true
	default:
		return nil, false
	}
}
