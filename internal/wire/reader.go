// Package wire implements the line framing used by the tracker protocol:
// one sanitized, length-bounded line in, one LF-terminated line out.
package wire

import (
	"bufio"
	"io"
	"strings"
)

// MaxLineLength is the cap on a single command line. Lines longer than this
// are silently truncated to their first MaxLineLength bytes, matching the
// fixed-buffer behavior of the original implementation. This holds for
// lines up to maxBufferedLine bytes; a line longer than that is not
// truncated: ReadLine returns bufio.ErrTooLong instead.
const MaxLineLength = 512

// maxBufferedLine bounds how much of one physical line the scanner will
// buffer while looking for its terminator, well above MaxLineLength so a
// long line is truncated by ReadLine rather than rejected by bufio as
// bufio.ErrTooLong.
const maxBufferedLine = 64 * 1024

// Reader reads sanitized command lines off a stream.
type Reader struct {
	scan *bufio.Scanner
}

// NewReader wraps r with the tracker's line-splitting and sanitization rules.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 4096), maxBufferedLine)
	s.Split(bufio.ScanLines)

	return &Reader{scan: s}
}

// ReadLine returns the next sanitized, length-capped command line. A
// zero-byte read (EOF with no pending data) is reported via io.EOF; callers
// treat that as a peer-initiated disconnect and synthesize QUIT.
func (r *Reader) ReadLine() (string, error) {
	if !r.scan.Scan() {
		if err := r.scan.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	line := sanitize(r.scan.Text())
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength]
	}

	return line, nil
}

// sanitize strips BS (0x08), CR (0x0D), and LF (0x0A) from a raw line. The
// scanner's own split function already excludes the LF terminator and any
// trailing CR; this additionally removes any of those three bytes embedded
// mid-line.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 0x08, 0x0D, 0x0A:
			return -1
		default:
			return r
		}
	}, s)
}
