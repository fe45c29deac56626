package command

import (
	"math"
	"strings"
	"time"

	"github.com/yndnr/redkv/internal/core/domain"
	"github.com/yndnr/redkv/pkg/resp"
)

// Parser turns request frames into commands. Relative expiries are
// resolved against its clock at parse time.
type Parser struct {
	now func() time.Time
}

// NewParser creates a Parser. A nil clock uses time.Now.
func NewParser(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{now: now}
}

type parseFunc func(p *Parser, a *Args) (Command, error)

var parsers = map[string]parseFunc{
	"ping":   parsePing,
	"echo":   parseEcho,
	"get":    parseGet,
	"set":    parseSet,
	"del":    parseDel,
	"exists": parseExists,
	"incr":   parseIncr,
	"decr":   parseDecr,
	"lpush":  parseLPush,
	"rpush":  parseRPush,
	"lrange": parseLRange,
	"ttl":    parseTTL,
	"pttl":   parsePTTL,
	"expire": parseExpire,
	"dbsize": parseNoArgs(DBSize{}),
	"save":   parseNoArgs(Save{}),
	"quit":   parseNoArgs(Quit{}),
}

// Parse interprets f, which must be an array whose first element names the
// command. An unrecognized name yields Unknown, not an error.
func (p *Parser) Parse(f resp.Frame) (Command, error) {
	arr, ok := f.(resp.Array)
	if !ok {
		return nil, domain.ErrNotArray
	}
	if len(arr) == 0 {
		return nil, domain.ErrMissingCommand
	}
	raw, ok := stringLike(arr[0])
	if !ok {
		return nil, domain.ErrArgKind.WithDetails("(got " + arr[0].Kind().String() + ")")
	}

	name := strings.ToLower(string(raw))
	parse, ok := parsers[name]
	if !ok {
		return Unknown{Command: string(raw)}, nil
	}
	return parse(p, newArgs(name, arr[1:]))
}

func parsePing(_ *Parser, a *Args) (Command, error) {
	if a.Done() {
		return Ping{}, nil
	}
	msg, err := a.NextBytes()
	if err != nil {
		return nil, err
	}
	if err := a.End(); err != nil {
		return nil, err
	}
	return Ping{Message: msg, HasMessage: true}, nil
}

func parseEcho(_ *Parser, a *Args) (Command, error) {
	msg, err := a.NextBytes()
	if err != nil {
		return nil, err
	}
	if err := a.End(); err != nil {
		return nil, err
	}
	return Echo{Message: msg}, nil
}

// singleKey parses commands taking exactly one key.
func singleKey(a *Args) (string, error) {
	key, err := a.NextText()
	if err != nil {
		return "", err
	}
	if err := a.End(); err != nil {
		return "", err
	}
	return key, nil
}

func parseGet(_ *Parser, a *Args) (Command, error) {
	key, err := singleKey(a)
	if err != nil {
		return nil, err
	}
	return Get{Key: key}, nil
}

func parseIncr(_ *Parser, a *Args) (Command, error) {
	key, err := singleKey(a)
	if err != nil {
		return nil, err
	}
	return Incr{Key: key}, nil
}

func parseDecr(_ *Parser, a *Args) (Command, error) {
	key, err := singleKey(a)
	if err != nil {
		return nil, err
	}
	return Decr{Key: key}, nil
}

func parseTTL(_ *Parser, a *Args) (Command, error) {
	key, err := singleKey(a)
	if err != nil {
		return nil, err
	}
	return TTL{Key: key}, nil
}

func parsePTTL(_ *Parser, a *Args) (Command, error) {
	key, err := singleKey(a)
	if err != nil {
		return nil, err
	}
	return TTL{Key: key, Millis: true}, nil
}

func parseDel(_ *Parser, a *Args) (Command, error) {
	keys, err := a.Rest()
	if err != nil {
		return nil, err
	}
	return Del{Keys: keys}, nil
}

func parseExists(_ *Parser, a *Args) (Command, error) {
	keys, err := a.Rest()
	if err != nil {
		return nil, err
	}
	return Exists{Keys: keys}, nil
}

func parsePush(a *Args) (string, [][]byte, error) {
	key, err := a.NextText()
	if err != nil {
		return "", nil, err
	}
	values, err := a.RestBytes()
	if err != nil {
		return "", nil, err
	}
	return key, values, nil
}

func parseLPush(_ *Parser, a *Args) (Command, error) {
	key, values, err := parsePush(a)
	if err != nil {
		return nil, err
	}
	return LPush{Key: key, Values: values}, nil
}

func parseRPush(_ *Parser, a *Args) (Command, error) {
	key, values, err := parsePush(a)
	if err != nil {
		return nil, err
	}
	return RPush{Key: key, Values: values}, nil
}

func parseLRange(_ *Parser, a *Args) (Command, error) {
	key, err := a.NextText()
	if err != nil {
		return nil, err
	}
	start, err := a.NextInt()
	if err != nil {
		return nil, err
	}
	stop, err := a.NextInt()
	if err != nil {
		return nil, err
	}
	if err := a.End(); err != nil {
		return nil, err
	}
	return LRange{Key: key, Start: start, Stop: stop}, nil
}

func parseExpire(p *Parser, a *Args) (Command, error) {
	key, err := a.NextText()
	if err != nil {
		return nil, err
	}
	seconds, err := a.NextInt()
	if err != nil {
		return nil, err
	}
	if err := a.End(); err != nil {
		return nil, err
	}

	d, ok := scale(seconds, time.Second)
	if !ok {
		return nil, domain.ErrInvalidExpire.WithDetails("'expire' command")
	}
	return Expire{Key: key, At: p.now().Add(d)}, nil
}

func parseNoArgs(c Command) parseFunc {
	return func(_ *Parser, a *Args) (Command, error) {
		if err := a.End(); err != nil {
			return nil, err
		}
		return c, nil
	}
}

// parseSet handles SET key value [EX s | PX ms | EXAT ts | PXAT ts] [GET].
// Options may appear in any order; at most one expiry option is allowed.
func parseSet(p *Parser, a *Args) (Command, error) {
	key, err := a.NextText()
	if err != nil {
		return nil, err
	}
	value, err := a.NextBytes()
	if err != nil {
		return nil, err
	}

	cmd := Set{Key: key, Value: value}
	hasExpiry := false
	for !a.Done() {
		opt, err := a.NextText()
		if err != nil {
			return nil, err
		}

		switch opt = strings.ToUpper(opt); opt {
		case "GET":
			cmd.ReturnPrevious = true
		case "EX", "PX", "EXAT", "PXAT":
			if hasExpiry || a.Done() {
				return nil, domain.ErrSyntax
			}
			n, err := a.NextInt()
			if err != nil {
				return nil, err
			}
			at, err := p.expiry(opt, n)
			if err != nil {
				return nil, err
			}
			cmd.ExpiresAt = at
			hasExpiry = true
		default:
			return nil, domain.ErrSyntax
		}
	}
	return cmd, nil
}

// expiry resolves one SET expiry option to an absolute instant.
func (p *Parser) expiry(opt string, n int64) (time.Time, error) {
	now := p.now()
	switch opt {
	case "EX", "PX":
		unit := time.Second
		if opt == "PX" {
			unit = time.Millisecond
		}
		if n <= 0 {
			return time.Time{}, domain.ErrInvalidExpire.WithDetails("'set' command")
		}
		d, ok := scale(n, unit)
		if !ok {
			return time.Time{}, domain.ErrInvalidExpire.WithDetails("'set' command")
		}
		return now.Add(d), nil
	default:
		var at time.Time
		if opt == "EXAT" {
			at = time.Unix(n, 0)
		} else {
			at = time.UnixMilli(n)
		}
		if !withinDuration(at, now) {
			return time.Time{}, domain.ErrInvalidExpire.WithDetails("'set' command")
		}
		if !at.After(now) {
			return time.Time{}, domain.ErrExpireInPast
		}
		return at, nil
	}
}

// withinDuration reports whether the distance from now to at fits in a
// time.Duration.
func withinDuration(at, now time.Time) bool {
	return now.Add(at.Sub(now)).Equal(at)
}

// scale returns n*unit, or false when the product leaves the Duration range.
func scale(n int64, unit time.Duration) (time.Duration, bool) {
	limit := int64(math.MaxInt64 / int64(unit))
	if n > limit || n < -limit {
		return 0, false
	}
	return time.Duration(n) * unit, true
}
