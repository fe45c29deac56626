package resp

import (
	"bytes"
	"math"
)

// Kind identifies a Frame variant.
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindError
	KindInteger
	KindBoolean
	KindDouble
	KindBulkString
	KindNullBulk
	KindNull
	KindArray
)

var kindNames = map[Kind]string{
	KindSimpleString: "SimpleString",
	KindError:        "Error",
	KindInteger:      "Integer",
	KindBoolean:      "Boolean",
	KindDouble:       "Double",
	KindBulkString:   "BulkString",
	KindNullBulk:     "NullBulk",
	KindNull:         "Null",
	KindArray:        "Array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Frame is one protocol value. The set of implementations is closed to this
// package.
type Frame interface {
	Kind() Kind
	sealed()
}

type (
	// SimpleString is a single-line, CRLF-free text.
	SimpleString string
	// Error is a single-line error message.
	Error string
	// Integer is a signed 64-bit integer.
	Integer int64
	// Boolean is true or false.
	Boolean bool
	// Double is a 64-bit float.
	Double float64
	// BulkString is a binary-safe byte string; it may be empty.
	BulkString []byte
	// NullBulk is the legacy null bulk string ($-1).
	NullBulk struct{}
	// Null is the null value.
	Null struct{}
	// Array is an ordered sequence of frames.
	Array []Frame
)

func (SimpleString) Kind() Kind { return KindSimpleString }
func (Error) Kind() Kind        { return KindError }
func (Integer) Kind() Kind      { return KindInteger }
func (Boolean) Kind() Kind      { return KindBoolean }
func (Double) Kind() Kind       { return KindDouble }
func (BulkString) Kind() Kind   { return KindBulkString }
func (NullBulk) Kind() Kind     { return KindNullBulk }
func (Null) Kind() Kind         { return KindNull }
func (Array) Kind() Kind        { return KindArray }

func (SimpleString) sealed() {}
func (Error) sealed()        {}
func (Integer) sealed()      {}
func (Boolean) sealed()      {}
func (Double) sealed()       {}
func (BulkString) sealed()   {}
func (NullBulk) sealed()     {}
func (Null) sealed()         {}
func (Array) sealed()        {}

// OK is the conventional acknowledgement reply.
var OK = SimpleString("OK")

// Bulk returns a BulkString holding s.
func Bulk(s string) BulkString {
	return BulkString(s)
}

// BulkArray builds an Array of BulkStrings, the shape of every request.
func BulkArray(items ...[]byte) Array {
	out := make(Array, 0, len(items))
	for _, it := range items {
		out = append(out, BulkString(it))
	}
	return out
}

// Command builds a request Array from string arguments.
func Command(args ...string) Array {
	out := make(Array, 0, len(args))
	for _, a := range args {
		out = append(out, BulkString(a))
	}
	return out
}

// Equal reports whether two frames are the same value. Empty and nil bulk
// strings and arrays compare equal, and NaN doubles equal each other.
func Equal(a, b Frame) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case BulkString:
		return bytes.Equal(av, b.(BulkString))
	case Double:
		bv := b.(Double)
		if math.IsNaN(float64(av)) {
			return math.IsNaN(float64(bv))
		}
		return av == bv && math.Signbit(float64(av)) == math.Signbit(float64(bv))
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
