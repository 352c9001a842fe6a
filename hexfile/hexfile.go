// Package hexfile reads payload files written as lines of hexadecimal text.
//
// Each record line holds exactly 16 hex digits, encoding 8 bytes in the order
// they are written. Leading blanks are ignored, as are blank lines and lines
// starting with '#'. A record may be followed by blanks and a '#' comment.
//
//	# frame 0, channel 0
//	00ff00ff00ff00ff
//	  DEADBEEF00000001   # mixed case is fine
package hexfile

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	RecordBytes = 8
	recordChars = 2 * RecordBytes
)

// SyntaxError reports an invalid line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

// Reader reads records from a hex file.
type Reader struct {
	s    *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{s: bufio.NewScanner(r)}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }

// Next decodes the next record into rec. It returns io.EOF when there are no
// more records.
func (r *Reader) Next(rec *[RecordBytes]byte) error {
	for r.s.Scan() {
		r.line++

		line := strings.TrimRight(r.s.Text(), "\r")
		line = strings.TrimLeft(line, " \t")
		if line == "" || line[0] == '#' {
			continue
		}

		if len(line) < recordChars {
			return &SyntaxError{Line: r.line, Msg: "too short (need 16 hex chars)"}
		}
		if rest := strings.TrimLeft(line[recordChars:], " \t"); rest != "" && rest[0] != '#' {
			return &SyntaxError{Line: r.line, Msg: "extra garbage after 16 hex chars"}
		}
		if _, err := hex.Decode(rec[:], []byte(line[:recordChars])); err != nil {
			return &SyntaxError{Line: r.line, Msg: err.Error()}
		}
		return nil
	}

	if err := r.s.Err(); err != nil {
		return fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return io.EOF
}

// ReadChunk fills buf with as many records as fit and returns the number of
// bytes read. len(buf) must be a multiple of RecordBytes. At the end of the
// file it returns the last, possibly partial, chunk then 0, io.EOF.
func (r *Reader) ReadChunk(buf []byte) (int, error) {
	if len(buf)%RecordBytes != 0 {
		return 0, fmt.Errorf("hexfile: chunk size %d is not a multiple of %d", len(buf), RecordBytes)
	}

	var rec [RecordBytes]byte
	n := 0
	for n < len(buf) {
		err := r.Next(&rec)
		if errors.Is(err, io.EOF) {
			if n == 0 {
				return 0, io.EOF
			}
			break
		}
		if err != nil {
			return n, err
		}
		n += copy(buf[n:], rec[:])
	}
	return n, nil
}

// ReadAll reads all records of r.
func ReadAll(r io.Reader) ([]byte, error) {
	hr := NewReader(r)

	var out []byte
	chunk := make([]byte, 512*RecordBytes)
	for {
		n, err := hr.ReadChunk(chunk)
		out = append(out, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
