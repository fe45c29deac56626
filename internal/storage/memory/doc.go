// Package memory provides the in-memory keyspace.
//
// A Store maps keys to raw byte values, each optionally carrying an absolute
// expiry instant. Keys with an expiry are also held in an ExpiryIndex
// ordered by instant; a background goroutine sleeps until the earliest
// instant and removes due keys together with their index entries.
//
// Thread Safety:
//
// All operations are serialized by one RWMutex guarding both the map and the
// index. Readers treat an expired entry as absent without removing it;
// writers purge it inline.
package memory
