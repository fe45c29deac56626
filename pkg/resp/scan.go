package resp

import "errors"

// Scanner finds where the first frame of a growing buffer ends. It keeps
// its position between calls, so bytes of elements it has already accepted
// are never examined again; feeding a frame in pieces costs time linear in
// the frame size.
//
// Scanner does not allocate frames. Once Scan reports a length, decode
// exactly that prefix with Decode.
type Scanner struct {
	pos int
	// pending holds the number of elements still expected by each open
	// array, outermost first.
	pending []int64
}

// Reset forgets any partial progress. Call it whenever the buffer is
// replaced or bytes are removed from its front other than through a
// successful Scan.
func (s *Scanner) Reset() {
	s.pos = 0
	s.pending = s.pending[:0]
}

// Scan reports the length of the first frame in buf. Between calls buf may
// only grow at the end. On ErrIncomplete the progress made so far is kept;
// on success or any other error the Scanner starts over on the next call.
func (s *Scanner) Scan(buf []byte) (int, error) {
	for {
		d := decoder{buf: buf, pos: s.pos, skip: true}
		if d.pos >= len(buf) {
			return 0, ErrIncomplete
		}

		if buf[d.pos] == '*' {
			d.pos++
			n, err := d.arrayHeader(len(s.pending))
			if err != nil {
				return 0, s.fail(err)
			}
			s.pos = d.pos
			if n > 0 {
				s.pending = append(s.pending, n)
				continue
			}
		} else {
			if _, err := d.frame(len(s.pending)); err != nil {
				return 0, s.fail(err)
			}
			s.pos = d.pos
		}

		// One element is complete; close every array it fills up.
		for len(s.pending) > 0 {
			top := len(s.pending) - 1
			s.pending[top]--
			if s.pending[top] > 0 {
				break
			}
			s.pending = s.pending[:top]
		}
		if len(s.pending) == 0 {
			n := s.pos
			s.Reset()
			return n, nil
		}
	}
}

func (s *Scanner) fail(err error) error {
	if !errors.Is(err, ErrIncomplete) {
		s.Reset()
	}
	return err
}
