package brotli

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// symbolDecoder is what the command loop and the block switch readers need
// from the entropy layer. The fast methods assume that checkInputAmount has
// confirmed enough input; the safe ones report false instead of blocking and
// never consume a partial symbol.
//
// begin takes a checkpoint; abort rolls back to it and commit drops it. Safe
// multi-field reads (a symbol followed by its extra bits) run between the two.
type symbolDecoder interface {
	checkInputAmount(num int) bool
	readBits(n uint32) uint32
	safeReadBits(n uint32) (uint32, bool)
	readSymbol(table []huffmanCode) uint32
	safeReadSymbol(table []huffmanCode) (uint32, bool)
	begin() bitReaderState
	commit(bitReaderState)
	abort(bitReaderState)
}

var _ symbolDecoder = (*bitReader)(nil)

func (br *bitReader) begin() bitReaderState {
	return br.save()
}

func (br *bitReader) commit(bitReaderState) {}

func (br *bitReader) abort(st bitReaderState) {
	br.restore(st)
}

// decodeSymbol decodes one symbol from bits, which must hold at least 15
// valid bits.
func (br *bitReader) decodeSymbol(bits uint32, table []huffmanCode) uint32 {
	idx := bits & huffmanTableMask
	e := table[idx]
	if e.bits > huffmanTableBits {
		nbits := uint32(e.bits) - huffmanTableBits
		br.dropBits(huffmanTableBits)
		idx += uint32(e.value) + (bits>>huffmanTableBits)&bitMask(nbits)
		e = table[idx]
	}

	br.dropBits(uint32(e.bits))
	return uint32(e.value)
}

func (br *bitReader) readSymbol(table []huffmanCode) uint32 {
	return br.decodeSymbol(br.get16BitsUnmasked(), table)
}

// safeDecodeSymbol decodes with whatever is left in the accumulator.
func (br *bitReader) safeDecodeSymbol(table []huffmanCode) (uint32, bool) {
	avail := br.availableBits()
	if avail == 0 {
		if table[0].bits == 0 {
			return uint32(table[0].value), true
		}
		return 0, false
	}

	val := uint32(br.bitsUnmasked())
	idx := val & huffmanTableMask
	e := table[idx]
	if e.bits <= huffmanTableBits {
		if uint32(e.bits) > avail {
			return 0, false
		}
		br.dropBits(uint32(e.bits))
		return uint32(e.value), true
	}

	if avail <= huffmanTableBits {
		return 0, false
	}

	sub := (val & bitMask(uint32(e.bits))) >> huffmanTableBits
	avail -= huffmanTableBits
	e = table[idx+uint32(e.value)+sub]
	if uint32(e.bits) > avail {
		return 0, false
	}

	br.dropBits(huffmanTableBits + uint32(e.bits))
	return uint32(e.value), true
}

func (br *bitReader) safeReadSymbol(table []huffmanCode) (uint32, bool) {
	if val, ok := br.safeGetBits(huffmanMaxCodeLength); ok {
		return br.decodeSymbol(val, table), true
	}

	return br.safeDecodeSymbol(table)
}
