package brotli

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/inovacc/brdecode/compression/internal/brotli"
)

var (
	// ErrCorrupt matches every DecodeError caused by malformed stream contents.
	ErrCorrupt = errors.New("brotli: corrupt stream")
	// ErrDictionaryNotSet matches streams that reference the static
	// dictionary when none was configured.
	ErrDictionaryNotSet = errors.New("brotli: stream needs the static dictionary")
	// ErrExcessiveInput reports bytes following the end of the stream.
	ErrExcessiveInput = brotli.ErrExcessiveInput
)

// DecodeError is returned when a stream is rejected.
type DecodeError struct {
	Code ErrorCode
	// Offset is the number of bytes decoded before the failure.
	Offset int
}

func newDecodeError(d *Decoder) *DecodeError {
	return &DecodeError{Code: d.ErrorCode(), Offset: d.TotalOut()}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("brotli: %s after %d bytes", e.Code, e.Offset)
}

func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrCorrupt:
		return e.Code.IsFormatError()
	case ErrDictionaryNotSet:
		return e.Code == brotli.ErrDictionaryNotSet
	}
	return false
}

func (e *DecodeError) Unwrap() error {
	return e.Code
}
