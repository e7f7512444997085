// Package dictionary holds the static word dictionary and the word transforms
// consumed by the brotli decoder when a back-reference reaches past the window.
//
// The dictionary contents are a data asset (122784 bytes for the RFC 7932
// dictionary) and are not embedded in this module; use Load or New to supply
// them.
package dictionary

import (
	"github.com/pkg/errors"
)

const (
	// MinWordLength is the shortest word length a dictionary may hold.
	MinWordLength = 4
	// MaxWordLength is the longest word length a dictionary may hold.
	MaxWordLength = 24

	// StandardSize is the size in bytes of the RFC 7932 dictionary blob.
	StandardSize = 122784

	maxSizeBits = 24
)

var (
	ErrSize     = errors.New("dictionary: data size does not match size bits")
	ErrSizeBits = errors.New("dictionary: invalid size bits")
)

// StandardSizeBits is log2 of the number of words per length in the RFC 7932
// dictionary, indexed by word length.
var StandardSizeBits = [MaxWordLength + 1]uint8{
	0, 0, 0, 0, 10, 10, 11, 11,
	10, 10, 10, 10, 10, 9, 9, 8,
	7, 7, 8, 7, 7, 6, 6, 5,
	5,
}

// Dictionary is a read-only table of words grouped by length. Words of length
// l occupy 1<<SizeBits(l) consecutive slots of l bytes starting at Offset(l).
type Dictionary struct {
	data     []byte
	sizeBits [MaxWordLength + 1]uint8
	offsets  [MaxWordLength + 1]uint32
}

// New builds a dictionary over data using the given per-length size bits.
// sizeBits must have MaxWordLength+1 entries and lengths below MinWordLength
// must hold no words.
func New(data []byte, sizeBits []uint8) (*Dictionary, error) {
	if len(sizeBits) != MaxWordLength+1 {
		return nil, errors.Wrapf(ErrSizeBits, "got %d entries, want %d", len(sizeBits), MaxWordLength+1)
	}

	d := &Dictionary{data: data}
	var offset uint64
	for l, bits := range sizeBits {
		if bits > maxSizeBits || (l < MinWordLength && bits != 0) {
			return nil, errors.Wrapf(ErrSizeBits, "length %d has %d bits", l, bits)
		}
		d.sizeBits[l] = bits
		d.offsets[l] = uint32(offset)
		if bits != 0 {
			offset += uint64(l) << bits
		}
	}

	if offset != uint64(len(data)) {
		return nil, errors.Wrapf(ErrSize, "got %d bytes, want %d", len(data), offset)
	}
	return d, nil
}

// NewStandard builds a dictionary with the RFC 7932 layout.
func NewStandard(data []byte) (*Dictionary, error) {
	return New(data, StandardSizeBits[:])
}

// SizeBits returns log2 of the number of words of the given length, or 0 when
// the dictionary holds no words of that length.
func (d *Dictionary) SizeBits(length int) uint32 {
	if length < 0 || length > MaxWordLength {
		return 0
	}
	return uint32(d.sizeBits[length])
}

// Offset returns the byte offset of the first word of the given length.
func (d *Dictionary) Offset(length int) uint32 {
	return d.offsets[length]
}

// Word returns the index-th word of the given length.
func (d *Dictionary) Word(length, index int) ([]byte, bool) {
	if length < MinWordLength || length > MaxWordLength || d.sizeBits[length] == 0 {
		return nil, false
	}
	if index < 0 || index >= 1<<d.sizeBits[length] {
		return nil, false
	}
	start := int(d.offsets[length]) + index*length
	return d.data[start : start+length], true
}

// Len returns the size of the backing data.
func (d *Dictionary) Len() int {
	return len(d.data)
}
