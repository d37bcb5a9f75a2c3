// Package mbox handles messages taken from an mbox file: the leading "From "
// separator line and the ">From " quoting of body lines.
package mbox

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/transform"
)

// MaxFromLine is the longest separator line Detect will consume. A longer
// first line is not treated as a separator.
const MaxFromLine = 4096

var fromPrefix = []byte("From ")

// remainder takes the bytes already read from an io.Reader and make a new
// reader that returns those bytes first and then passes the reads from the
// unread part of the io.Reader on to the caller.
type remainder struct {
	prefix []byte
	r      io.Reader
}

// Read perform a read from the prefix buffer first, if any bytes remain. Once
// those bytes have been consumed, it starts consuming bytes from the io.Reader.
func (r *remainder) Read(p []byte) (n int, err error) {
	if len(r.prefix) > 0 {
		n = copy(p, r.prefix)
		r.prefix = r.prefix[n:]
		return n, nil
	}

	return r.r.Read(p)
}

// Detect reads the start of r to see if the message begins with an mbox
// separator line. If it does, the line is consumed and returned without its
// line break. The returned io.Reader yields the message that follows, or the
// whole input when there is no separator line.
func Detect(r io.Reader) (io.Reader, string, bool, error) {
	buf := make([]byte, 0, 512)
	p := make([]byte, 512)

	for {
		n, err := r.Read(p)
		buf = append(buf, p[:n]...)

		if len(buf) >= len(fromPrefix) || (err != nil && len(buf) > 0) {
			if !bytes.HasPrefix(buf, fromPrefix) {
				return &remainder{buf, r}, "", false, ignoreEOF(err)
			}

			if ix := bytes.IndexAny(buf, "\r\n"); ix >= 0 {
				end := ix + 1
				if buf[ix] == '\r' {
					if end == len(buf) && err == nil {
						// a LF may follow in the next read
						continue
					}
					if end < len(buf) && buf[end] == '\n' {
						end++
					}
				}

				return &remainder{buf[end:], r}, string(buf[:ix]), true, ignoreEOF(err)
			}

			if len(buf) > MaxFromLine {
				return &remainder{buf, r}, "", false, ignoreEOF(err)
			}
		}

		if errors.Is(err, io.EOF) {
			if bytes.HasPrefix(buf, fromPrefix) {
				return &remainder{nil, r}, string(buf), true, nil
			}
			return &remainder{buf, r}, "", false, nil
		} else if err != nil {
			return nil, "", false, err
		}
	}
}

// ignoreEOF drops io.EOF, which the remainder will report again on its own.
func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// unescaper removes one ">" from each line starting with one or more ">"
// followed by "From ".
type unescaper struct {
	atLineStart bool
}

// NewUnescaper returns the transformer that undoes ">From " quoting.
func NewUnescaper() transform.Transformer {
	return &unescaper{atLineStart: true}
}

// NewReader returns a reader that undoes ">From " quoting of the lines read
// from r.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, NewUnescaper())
}

// Reset implements transform.Transformer.
func (u *unescaper) Reset() {
	u.atLineStart = true
}

// Transform implements transform.Transformer.
func (u *unescaper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if u.atLineStart && src[nSrc] == '>' {
			end := nSrc
			for end < len(src) && src[end] == '>' {
				end++
			}

			rest := src[end:]
			if !atEOF && len(rest) < len(fromPrefix) && bytes.HasPrefix(fromPrefix, rest) {
				if nSrc > 0 || len(src) < MaxFromLine {
					return nDst, nSrc, transform.ErrShortSrc
				}
			}

			start := nSrc
			if bytes.HasPrefix(rest, fromPrefix) {
				start++
			}

			if len(dst)-nDst < end-start {
				return nDst, nSrc, transform.ErrShortDst
			}

			nDst += copy(dst[nDst:], src[start:end])
			nSrc = end
			u.atLineStart = false
			continue
		}

		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		c := src[nSrc]
		dst[nDst] = c
		nDst++
		nSrc++
		u.atLineStart = c == '\n' || c == '\r'
	}

	return nDst, nSrc, nil
}
