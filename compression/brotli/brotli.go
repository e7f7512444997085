// Package brotli decompresses Brotli (RFC 7932) streams.
//
// Decompress and DecompressFile decode a whole stream at once, NewReader
// wraps an io.Reader and NewDecoder exposes the resumable decoder for callers
// that feed input and drain output themselves.
package brotli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/inovacc/brdecode/compression/dictionary"
	"github.com/inovacc/brdecode/compression/internal/brotli"
)

type (
	// Decoder is a resumable decoder; see Decoder.Decompress.
	Decoder = brotli.Decoder
	// Result is the outcome of one Decoder.Decompress call.
	Result = brotli.Result
	// ErrorCode identifies why a stream was rejected.
	ErrorCode = brotli.ErrorCode
	// Option configures a decoder.
	Option = brotli.OptsFn
)

const (
	ResultError           = brotli.ResultError
	ResultSuccess         = brotli.ResultSuccess
	ResultNeedsMoreInput  = brotli.ResultNeedsMoreInput
	ResultNeedsMoreOutput = brotli.ResultNeedsMoreOutput
)

// outChunk is the output growth step of Decompress.
const outChunk = 64 * 1024

// WithDictionary supplies the static dictionary. Streams that reference it
// fail with ErrDictionaryNotSet without one.
func WithDictionary(d *dictionary.Dictionary) Option {
	return brotli.WithDictionary(d)
}

// WithTransforms replaces the RFC 7932 word transforms.
func WithTransforms(t *dictionary.Transforms) Option {
	return brotli.WithTransforms(t)
}

// WithCustomDictionary prefills the window with data the stream was
// compressed against.
func WithCustomDictionary(data []byte) Option {
	return brotli.WithCustomDictionary(data)
}

// WithLargeWindow accepts streams using windows of up to 1 GiB.
func WithLargeWindow(enabled bool) Option {
	return brotli.WithLargeWindow(enabled)
}

func WithLogger(l logrus.FieldLogger) Option {
	return brotli.WithLogger(l)
}

// NewDecoder returns a decoder for one stream.
func NewDecoder(opts ...Option) *Decoder {
	return brotli.NewDecoder(brotli.NewConfig(opts...))
}

// Decompress decodes a complete stream.
func Decompress(data []byte, opts ...Option) ([]byte, error) {
	d := NewDecoder(opts...)

	out := make([]byte, 0, min(max(4*len(data), 1024), outChunk))
	in := data
	for {
		if len(out) == cap(out) {
			out = append(out, make([]byte, outChunk)...)[:len(out)]
		}

		consumed, produced, res := d.Decompress(in, out[len(out):cap(out)])
		in = in[consumed:]
		out = out[:len(out)+produced]

		switch res {
		case ResultSuccess:
			if len(in) > 0 {
				return out, ErrExcessiveInput
			}
			return out, nil

		case ResultNeedsMoreInput:
			return out, errors.Wrapf(io.ErrUnexpectedEOF, "brotli: stream ends after %d bytes", len(data))

		case ResultError:
			return out, newDecodeError(d)
		}
	}
}

// DecompressFile decodes the stream stored at path on fs.
func DecompressFile(fs afero.Fs, path string, opts ...Option) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}

	out, err := Decompress(data, opts...)
	if err != nil {
		return out, errors.Wrapf(err, "error decoding %s", path)
	}
	return out, nil
}

// Reader decompresses a stream read from an underlying reader.
type Reader struct {
	r *brotli.Reader
}

func NewReader(src io.Reader, opts ...Option) *Reader {
	return &Reader{r: brotli.NewReader(src, brotli.NewConfig(opts...))}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)

	var code ErrorCode
	if err != nil && errors.As(err, &code) {
		return n, newDecodeError(r.r.Decoder())
	}
	return n, err
}

// Reset starts over on a new stream with the same options.
func (r *Reader) Reset(src io.Reader) {
	r.r.Reset(src)
}

// TotalOut returns the number of bytes decoded so far.
func (r *Reader) TotalOut() int {
	return r.r.Decoder().TotalOut()
}

// Copy decodes the stream read from src into w and returns the number of
// decoded bytes written.
func Copy(w io.Writer, src io.Reader, opts ...Option) (int64, error) {
	return io.Copy(w, NewReader(src, opts...))
}
