// Package httprange parses the subset of HTTP Range headers the streaming
// endpoint honors: a single inclusive byte range, "bytes=start-end" or the
// open-ended "bytes=start-".
package httprange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrMalformed indicates the header is syntactically invalid (400).
	ErrMalformed = errors.New("malformed range header")
	// ErrUnsatisfiable indicates a well-formed range outside the content
	// bounds (416). Responses carry "Content-Range: bytes */<size>".
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)

// ByteRange is an inclusive byte span within a resource of known size.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// Parse validates a Range header against a resource of the given size. The
// end offset defaults to size-1 when omitted and is clamped to size-1 when it
// overshoots. A start at or past the end of the resource, or an end before
// the start, is unsatisfiable rather than malformed.
func Parse(header string, size int64) (ByteRange, error) {
	match := rangePattern.FindStringSubmatch(header)
	if match == nil {
		return ByteRange{}, ErrMalformed
	}

	start, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return ByteRange{}, ErrMalformed
	}

	end := size - 1
	if match[2] != "" {
		end, err = strconv.ParseInt(match[2], 10, 64)
		if err != nil {
			return ByteRange{}, ErrMalformed
		}
	}

	if start < 0 || end < start || start >= size {
		return ByteRange{}, ErrUnsatisfiable
	}

	if end > size-1 {
		end = size - 1
	}

	return ByteRange{Start: start, End: end}, nil
}
