package foam

import (
	"bytes"
	"fmt"
	"strconv"
)

// scanner walks the body of a foam file. It understands whitespace,
// C and C++ style comments, and the few token shapes the list formats use.
type scanner struct {
	data []byte
	pos  int
}

func newScanner(data []byte, pos int) *scanner {
	return &scanner{data: data, pos: pos}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.data)
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			s.pos++
		case c == '/' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '/':
			end := bytes.IndexByte(s.data[s.pos:], '\n')
			if end < 0 {
				s.pos = len(s.data)
			} else {
				s.pos += end + 1
			}
		case c == '/' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '*':
			end := bytes.Index(s.data[s.pos+2:], []byte("*/"))
			if end < 0 {
				s.pos = len(s.data)
			} else {
				s.pos += end + 4
			}
		default:
			return
		}
	}
}

// peek returns the next non-space byte without consuming it.
func (s *scanner) peek() (byte, bool) {
	s.skipSpace()
	if s.eof() {
		return 0, false
	}
	return s.data[s.pos], true
}

func (s *scanner) expect(c byte) error {
	got, ok := s.peek()
	if !ok {
		return fmt.Errorf("expected %q at offset %d, got end of file", c, s.pos)
	}
	if got != c {
		return fmt.Errorf("expected %q at offset %d, got %q", c, s.pos, got)
	}
	s.pos++
	return nil
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v', '(', ')', '{', '}', ';':
		return true
	}
	return false
}

// word returns the next token up to a delimiter.
func (s *scanner) word() ([]byte, error) {
	s.skipSpace()
	start := s.pos
	for s.pos < len(s.data) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	if start == s.pos {
		if s.eof() {
			return nil, fmt.Errorf("unexpected end of file at offset %d", s.pos)
		}
		return nil, fmt.Errorf("expected token at offset %d, got %q", s.pos, s.data[s.pos])
	}
	return s.data[start:s.pos], nil
}

func (s *scanner) integer() (int, error) {
	w, err := s.word()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(w))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q at offset %d", w, s.pos-len(w))
	}
	return n, nil
}

func (s *scanner) float() (float64, error) {
	w, err := s.word()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(w), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q at offset %d", w, s.pos-len(w))
	}
	return v, nil
}

// raw consumes n bytes verbatim, used by binary lists.
func (s *scanner) raw(n int) ([]byte, error) {
	if n < 0 || s.pos+n > len(s.data) {
		return nil, fmt.Errorf("binary block of %d bytes at offset %d exceeds file size %d", n, s.pos, len(s.data))
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}
