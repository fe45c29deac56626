// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard has its own RWMutex, so operations on different shards
// never contend.
//
//	conns := cmap.New[*Conn]()
//	conns.Set(id, c)
//	defer conns.Delete(id)
//
// Range visits shards one at a time and does not observe a consistent
// snapshot of the whole map.
package cmap
