package brotli

import (
	"errors"
	"io"
)

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

var (
	ErrExcessiveInput = errors.New("brotli: excessive input")
	errInvalidState   = errors.New("brotli: invalid state")
)

// readBufSize matches the buffer size io.Copy uses.
const readBufSize = 32 * 1024

// Reader decompresses a brotli stream read from an io.Reader.
type Reader struct {
	dec *Decoder
	src io.Reader
	buf []byte
	in  []byte
}

// NewReader creates a new Reader reading the given reader. A nil cfg uses
// NewConfig().
func NewReader(src io.Reader, cfg *Config) *Reader {
	r := &Reader{dec: NewDecoder(cfg)}
	r.Reset(src)
	return r
}

// Reset discards the Reader's state and makes it equivalent to the result of
// NewReader with the same configuration, reading from src instead.
func (r *Reader) Reset(src io.Reader) {
	r.dec.Reset()
	r.src = src
	r.in = nil
	if r.buf == nil {
		r.buf = make([]byte, readBufSize)
	}
}

// Decoder exposes the underlying decoder, mostly for its error code and
// output counter.
func (r *Reader) Decoder() *Decoder {
	return r.dec
}

func (r *Reader) Read(p []byte) (n int, err error) {
	if !r.dec.HasMoreOutput() && len(r.in) == 0 && !r.dec.IsFinished() {
		m, readErr := r.src.Read(r.buf)
		if m == 0 {
			if readErr == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, readErr
		}
		r.in = r.buf[:m]
	}

	if len(p) == 0 {
		return 0, nil
	}

	for {
		consumed, produced, result := r.dec.Decompress(r.in, p)
		r.in = r.in[consumed:]
		n = produced

		switch result {
		case ResultSuccess:
			if len(r.in) > 0 {
				return n, ErrExcessiveInput
			}
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil

		case ResultError:
			return n, r.dec.ErrorCode()

		case ResultNeedsMoreOutput:
			if n == 0 {
				return 0, io.ErrShortBuffer
			}
			return n, nil
		}

		if len(r.in) != 0 {
			return 0, errInvalidState
		}

		// Reading may block; hand out what is already there first.
		if n > 0 {
			return n, nil
		}

		m, readErr := r.src.Read(r.buf)
		if m == 0 {
			// Not enough data to complete decoding.
			if readErr == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, readErr
		}
		r.in = r.buf[:m]
	}
}
