package memory

import (
	"github.com/yndnr/redkv/internal/core/domain"
	"github.com/yndnr/redkv/pkg/resp"
)

// Lists live inside ordinary values as the wire encoding of an array of
// bulk strings. Any other value is not a list.

func decodeList(value []byte) ([][]byte, error) {
	f, err := resp.DecodeAll(value)
	if err != nil {
		return nil, domain.ErrWrongType
	}
	arr, ok := f.(resp.Array)
	if !ok {
		return nil, domain.ErrWrongType
	}
	items := make([][]byte, len(arr))
	for i, it := range arr {
		b, ok := it.(resp.BulkString)
		if !ok {
			return nil, domain.ErrWrongType
		}
		items[i] = b
	}
	return items, nil
}

func encodeList(items [][]byte) []byte {
	return resp.Encode(resp.BulkArray(items...))
}

// PushLeft prepends values to the list at key, one at a time, so the last
// value ends up first. It returns the new length.
func (s *Store) PushLeft(key string, values ...[]byte) (int, error) {
	return s.push(key, values, true)
}

// PushRight appends values to the list at key and returns the new length.
func (s *Store) PushRight(key string, values ...[]byte) (int, error) {
	return s.push(key, values, false)
}

func (s *Store) push(key string, values [][]byte, left bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key, s.now())
	var list [][]byte
	if e != nil {
		var err error
		if list, err = decodeList(e.value); err != nil {
			return 0, err
		}
	}

	out := make([][]byte, 0, len(list)+len(values))
	if left {
		for i := len(values) - 1; i >= 0; i-- {
			out = append(out, values[i])
		}
		out = append(out, list...)
	} else {
		out = append(out, list...)
		out = append(out, values...)
	}

	value := encodeList(out)
	if e != nil {
		e.value = value
	} else {
		s.data[key] = &entry{value: value}
	}
	return len(out), nil
}

// LRange returns the elements between start and stop inclusive. Negative
// indexes count from the end; out-of-range bounds are clamped.
func (s *Store) LRange(key string, start, stop int64) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || e.expired(s.now()) {
		return [][]byte{}, nil
	}
	list, err := decodeList(e.value)
	if err != nil {
		return nil, err
	}

	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return [][]byte{}, nil
	}
	return list[start : stop+1], nil
}
