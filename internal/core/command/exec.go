package command

import (
	"context"
	"time"

	"github.com/yndnr/redkv/internal/core/domain"
	"github.com/yndnr/redkv/internal/telemetry/logger"
	"github.com/yndnr/redkv/pkg/resp"
)

// Keyspace is the store the Executor runs commands against.
type Keyspace interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, expiresAt time.Time) ([]byte, bool)
	Delete(keys ...string) int
	Exists(keys ...string) int
	Incr(key string, delta int64) (int64, error)
	PushLeft(key string, values ...[]byte) (int, error)
	PushRight(key string, values ...[]byte) (int, error)
	LRange(key string, start, stop int64) ([][]byte, error)
	TTL(key string) (time.Duration, bool)
	Expire(key string, at time.Time) bool
	Len() int
}

// Saver writes a snapshot of the keyspace.
type Saver interface {
	Save(ctx context.Context) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context) error

// Save calls f(ctx).
func (f SaverFunc) Save(ctx context.Context) error {
	return f(ctx)
}

// Executor runs commands against one shared Keyspace.
type Executor struct {
	ks    Keyspace
	saver Saver
}

// NewExecutor creates an Executor. A nil saver makes SAVE fail.
func NewExecutor(ks Keyspace, saver Saver) *Executor {
	return &Executor{ks: ks, saver: saver}
}

// Execute runs cmd and returns its reply. Failures are returned as Error
// frames; Execute itself never fails.
func (e *Executor) Execute(ctx context.Context, cmd Command) resp.Frame {
	switch c := cmd.(type) {
	case Ping:
		if c.HasMessage {
			return resp.BulkString(c.Message)
		}
		return resp.SimpleString("PONG")

	case Echo:
		return resp.BulkString(c.Message)

	case Get:
		v, ok := e.ks.Get(c.Key)
		if !ok {
			return resp.Null{}
		}
		return resp.BulkString(v)

	case Set:
		prev, existed := e.ks.Set(c.Key, c.Value, c.ExpiresAt)
		if !c.ReturnPrevious {
			return resp.OK
		}
		if !existed {
			return resp.Null{}
		}
		return resp.BulkString(prev)

	case Del:
		return resp.Integer(e.ks.Delete(c.Keys...))

	case Exists:
		return resp.Integer(e.ks.Exists(c.Keys...))

	case Incr:
		return e.incr(c.Key, 1)

	case Decr:
		return e.incr(c.Key, -1)

	case LPush:
		n, err := e.ks.PushLeft(c.Key, c.Values...)
		if err != nil {
			return ErrorReply(err)
		}
		return resp.Integer(n)

	case RPush:
		n, err := e.ks.PushRight(c.Key, c.Values...)
		if err != nil {
			return ErrorReply(err)
		}
		return resp.Integer(n)

	case LRange:
		items, err := e.ks.LRange(c.Key, c.Start, c.Stop)
		if err != nil {
			return ErrorReply(err)
		}
		return resp.BulkArray(items...)

	case TTL:
		d, ok := e.ks.TTL(c.Key)
		return ttlReply(d, ok, c.Millis)

	case Expire:
		if e.ks.Expire(c.Key, c.At) {
			return resp.Integer(1)
		}
		return resp.Integer(0)

	case DBSize:
		return resp.Integer(e.ks.Len())

	case Save:
		return e.save(ctx)

	case Quit:
		return resp.OK

	case Unknown:
		return ErrorReply(domain.ErrUnknownCommand.WithDetails("'" + c.Command + "'"))

	default:
		return ErrorReply(domain.ErrUnknownCommand.WithDetails("'" + cmd.Name() + "'"))
	}
}

func (e *Executor) incr(key string, delta int64) resp.Frame {
	n, err := e.ks.Incr(key, delta)
	if err != nil {
		return ErrorReply(err)
	}
	return resp.Integer(n)
}

func (e *Executor) save(ctx context.Context) resp.Frame {
	if e.saver == nil {
		return ErrorReply(domain.ErrSnapshot.WithDetails("(persistence disabled)"))
	}
	if err := e.saver.Save(ctx); err != nil {
		logger.L(ctx).Error("snapshot save failed", "error", err)
		return ErrorReply(domain.ErrSnapshot.Wrap(err))
	}
	return resp.OK
}

// ttlReply renders TTL and PTTL replies: -2 for a missing key, -1 for a
// key without expiry, otherwise the remaining time rounded to the unit.
func ttlReply(d time.Duration, ok, millis bool) resp.Frame {
	switch {
	case !ok:
		return resp.Integer(-2)
	case d < 0:
		return resp.Integer(-1)
	case millis:
		return resp.Integer(roundTo(d, time.Millisecond))
	default:
		return resp.Integer(roundTo(d, time.Second))
	}
}

// roundTo rounds a non-negative d to the nearest whole unit without
// overflowing near the top of the Duration range.
func roundTo(d, unit time.Duration) int64 {
	q, r := d/unit, d%unit
	if r >= unit/2 {
		q++
	}
	return int64(q)
}

// ErrorReply renders err as an Error frame.
func ErrorReply(err error) resp.Error {
	return resp.Error(domain.ReplyText(err))
}
