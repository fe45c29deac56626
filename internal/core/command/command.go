package command

import "time"

// Command is one parsed request. The set of implementations is closed to
// this package.
type Command interface {
	// Name returns the lower-case command name used in replies, logs and
	// metric labels.
	Name() string
	command()
}

type (
	// Ping replies PONG, or echoes Message when one was given.
	Ping struct {
		Message    []byte
		HasMessage bool
	}

	// Echo replies with Message.
	Echo struct {
		Message []byte
	}

	// Get reads the value at Key.
	Get struct {
		Key string
	}

	// Set stores Value at Key. A zero ExpiresAt stores it without expiry.
	// ReturnPrevious selects the GET option.
	Set struct {
		Key            string
		Value          []byte
		ExpiresAt      time.Time
		ReturnPrevious bool
	}

	// Del removes Keys.
	Del struct {
		Keys []string
	}

	// Exists counts the live keys among Keys, repeats included.
	Exists struct {
		Keys []string
	}

	// Incr adds one to the integer at Key.
	Incr struct {
		Key string
	}

	// Decr subtracts one from the integer at Key.
	Decr struct {
		Key string
	}

	// LPush prepends Values to the list at Key.
	LPush struct {
		Key    string
		Values [][]byte
	}

	// RPush appends Values to the list at Key.
	RPush struct {
		Key    string
		Values [][]byte
	}

	// LRange reads the list elements between Start and Stop inclusive.
	LRange struct {
		Key         string
		Start, Stop int64
	}

	// TTL reports the remaining time to live of Key, in seconds or, when
	// Millis is set, milliseconds (PTTL).
	TTL struct {
		Key    string
		Millis bool
	}

	// Expire sets an absolute expiry on Key. An instant that is not in the
	// future deletes the key.
	Expire struct {
		Key string
		At  time.Time
	}

	// DBSize counts live keys.
	DBSize struct{}

	// Save writes a snapshot of the keyspace.
	Save struct{}

	// Quit acknowledges and asks the connection to close.
	Quit struct{}

	// Unknown is any command name not listed above.
	Unknown struct {
		Command string
	}
)

func (Ping) Name() string   { return "ping" }
func (Echo) Name() string   { return "echo" }
func (Get) Name() string    { return "get" }
func (Set) Name() string    { return "set" }
func (Del) Name() string    { return "del" }
func (Exists) Name() string { return "exists" }
func (Incr) Name() string   { return "incr" }
func (Decr) Name() string   { return "decr" }
func (LPush) Name() string  { return "lpush" }
func (RPush) Name() string  { return "rpush" }
func (LRange) Name() string { return "lrange" }
func (Expire) Name() string { return "expire" }
func (DBSize) Name() string { return "dbsize" }
func (Save) Name() string   { return "save" }
func (Quit) Name() string   { return "quit" }

func (c TTL) Name() string {
	if c.Millis {
		return "pttl"
	}
	return "ttl"
}

// Name of an Unknown command is a fixed label; the requested name is in
// the Command field.
func (Unknown) Name() string { return "unknown" }

func (Ping) command()    {}
func (Echo) command()    {}
func (Get) command()     {}
func (Set) command()     {}
func (Del) command()     {}
func (Exists) command()  {}
func (Incr) command()    {}
func (Decr) command()    {}
func (LPush) command()   {}
func (RPush) command()   {}
func (LRange) command()  {}
func (TTL) command()     {}
func (Expire) command()  {}
func (DBSize) command()  {}
func (Save) command()    {}
func (Quit) command()    {}
func (Unknown) command() {}

// Names lists the recognized command names in upper case.
var Names = []string{
	"DBSIZE", "DECR", "DEL", "ECHO", "EXISTS", "EXPIRE", "GET", "INCR",
	"LPUSH", "LRANGE", "PING", "PTTL", "QUIT", "RPUSH", "SAVE", "SET", "TTL",
}
