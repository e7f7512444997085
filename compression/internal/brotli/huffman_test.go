package brotli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder(in []byte) *Decoder {
	d := NewDecoder(nil)
	d.br.input = in
	return d
}

// canonicalTable builds a root-8 table for the given code lengths.
func canonicalTable(lengths []uint8) []huffmanCode {
	var count lengthHistogram
	for _, l := range lengths {
		if l != 0 {
			count[l]++
		}
	}
	sorted := sortSymbols(lengths, &count, make([]uint16, len(lengths)))
	return buildHuffmanTable(huffmanTableBits, sorted, &count)
}

func TestBuildHuffmanTableSecondLevel(t *testing.T) {
	table := canonicalTable([]uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 9})
	require.Len(t, table, 256+2)
	assert.Equal(t, uint8(9), table[0xFF].bits)

	w := &bitWriter{}
	w.writeCode("111111111").writeCode("0").writeCode("111111110").writeCode("11111110").writeCode("110")
	br := bitReader{}
	br.init()
	br.input = append(w.bytes(), 0, 0, 0, 0)

	for _, want := range []uint32{9, 0, 8, 7, 2} {
		got, ok := br.safeReadSymbol(table)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestBuildHuffmanTableSingleSymbol(t *testing.T) {
	table := buildSimpleHuffmanTable([]uint16{42, 0, 0, 0}, 0)

	br := bitReader{}
	br.init()
	got, ok := br.safeReadSymbol(table)
	require.True(t, ok, "a single symbol code consumes no input")
	assert.Equal(t, uint32(42), got)
}

func TestBuildSimpleHuffmanTableOrder(t *testing.T) {
	// Three symbols: the first listed gets the short code, the other two are
	// ordered by value.
	table := buildSimpleHuffmanTable([]uint16{7, 5, 3, 0}, 2)

	w := &bitWriter{}
	w.writeCode("0").writeCode("10").writeCode("11")
	br := bitReader{}
	br.init()
	br.input = w.bytes()

	for _, want := range []uint32{7, 3, 5} {
		got, ok := br.safeReadSymbol(table)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

// writeCodeLengthCode writes HSKIP 0 and a code length code giving length 1
// to 0 and length 2 to 1 and 2, whose canonical codes are 0, 10 and 11.
func writeCodeLengthCode(w *bitWriter) {
	w.write(0, 2)
	w.write(3, 3).write(3, 3)
	w.write(0, 2).write(0, 2)
	w.write(7, 4)
}

func TestReadHuffmanCodeComplex(t *testing.T) {
	w := &bitWriter{}
	writeCodeLengthCode(w)
	w.writeCode("10").writeCode("11").writeCode("11")
	w.writeCode("11").writeCode("0").writeCode("10")

	d := newTestDecoder(append(w.bytes(), 0, 0, 0, 0))
	table, r := d.readHuffmanCode(numLiteralSymbols, numLiteralSymbols)
	require.Equal(t, codeSuccess, r)

	for _, want := range []uint32{2, 0, 1} {
		got, ok := d.br.safeReadSymbol(table)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestReadHuffmanCodeOversubscribed(t *testing.T) {
	w := &bitWriter{}
	writeCodeLengthCode(w)
	w.writeCode("11").writeCode("10").writeCode("10")
	for range numLiteralSymbols - 3 {
		w.writeCode("0")
	}

	d := newTestDecoder(append(w.bytes(), 0, 0, 0, 0))
	_, r := d.readHuffmanCode(numLiteralSymbols, numLiteralSymbols)
	assert.Equal(t, ErrFormatHuffmanSpace, r)
}

func TestReadHuffmanCodeIncomplete(t *testing.T) {
	w := &bitWriter{}
	writeCodeLengthCode(w)
	w.writeCode("10")
	for range numLiteralSymbols - 1 {
		w.writeCode("0")
	}

	d := newTestDecoder(append(w.bytes(), 0, 0, 0, 0))
	_, r := d.readHuffmanCode(numLiteralSymbols, numLiteralSymbols)
	assert.Equal(t, ErrFormatHuffmanSpace, r)
}

func TestReadHuffmanCodeLengthCodeSpace(t *testing.T) {
	// Two codes of length 2 leave half of the space unused.
	w := &bitWriter{}
	w.write(0, 2)
	w.write(3, 3).write(3, 3)
	for range codeLengthCodes - 2 {
		w.write(0, 2)
	}

	d := newTestDecoder(append(w.bytes(), 0, 0, 0, 0))
	_, r := d.readHuffmanCode(numLiteralSymbols, numLiteralSymbols)
	assert.Equal(t, ErrFormatClSpace, r)
}

func TestReadHuffmanCodeResumes(t *testing.T) {
	w := &bitWriter{}
	writeCodeLengthCode(w)
	w.writeCode("10").writeCode("11").writeCode("11")
	w.writeCode("0")
	in := w.bytes()

	d := newTestDecoder(nil)
	var (
		table []huffmanCode
		r     ErrorCode
	)
	for i := range in {
		d.br.input = in[:i+1]
		table, r = d.readHuffmanCode(numLiteralSymbols, numLiteralSymbols)
		if r != codeNeedsMoreInput {
			break
		}
	}
	require.Equal(t, codeSuccess, r)

	got, ok := d.br.safeReadSymbol(table)
	require.True(t, ok)
	assert.Equal(t, uint32(0), got)
}
