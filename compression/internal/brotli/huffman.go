package brotli

import "math/bits"

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// Canonical prefix code tables.
//
// A table is indexed by the next huffmanTableBits input bits (read LSB
// first). Codes that fit are replicated over every slot sharing their bits.
// Longer codes get a second-level table; the root slot then holds
// bits = root + second-level width and value = offset of the second-level
// table relative to the root slot.

const (
	huffmanMaxCodeLength           = 15
	huffmanMaxCodeLengthCodeLength = 5
	huffmanTableBits               = 8
	huffmanTableMask               = 0xFF

	// Alphabet of the code length code: 0..15 literal lengths, 16 and 17 repeats.
	codeLengthCodes = huffmanMaxCodeLength + 3

	codeLengthRepeatCode        = 16
	initialRepeatedCodeLength   = 8
	huffmanCodeLengthTableSize  = 1 << huffmanMaxCodeLengthCodeLength
	huffmanKraftSpace           = 1 << huffmanMaxCodeLength
	huffmanCodeLengthKraftSpace = 32
)

type huffmanCode struct {
	bits  uint8
	value uint16
}

// lengthHistogram counts symbols per code length.
type lengthHistogram [huffmanMaxCodeLength + 1]uint16

func reverseBits(code, length uint32) uint32 {
	return bits.Reverse32(code) >> (32 - length)
}

func replicateValue(table []huffmanCode, start uint32, step int, code huffmanCode) {
	for i := int(start); i < len(table); i += step {
		table[i] = code
	}
}

// nextTableBitSize returns the width of the second-level table that starts
// with a code of the given length, given the counts of codes not placed yet.
func nextTableBitSize(count *lengthHistogram, length, rootBits uint32) uint32 {
	left := 1 << (length - rootBits)
	for length < huffmanMaxCodeLength {
		left -= int(count[length])
		if left <= 0 {
			break
		}
		length++
		left <<= 1
	}
	return length - rootBits
}

// sortSymbols lists the symbols with a nonzero length in canonical order: by
// length first, then by symbol value.
func sortSymbols(lengths []uint8, count *lengthHistogram, sorted []uint16) []uint16 {
	var offset [huffmanMaxCodeLength + 2]int
	for l := 1; l <= huffmanMaxCodeLength; l++ {
		offset[l+1] = offset[l] + int(count[l])
	}

	sorted = sorted[:offset[huffmanMaxCodeLength+1]]
	for sym, l := range lengths {
		if l != 0 {
			sorted[offset[l]] = uint16(sym)
			offset[l]++
		}
	}
	return sorted
}

// buildHuffmanTable builds a lookup table from canonically sorted symbols and
// their per-length histogram. The code must be complete unless it consists of
// a single symbol, which then decodes without consuming any bits.
func buildHuffmanTable(rootBits uint32, sorted []uint16, count *lengthHistogram) []huffmanCode {
	rootSize := 1 << rootBits
	table := make([]huffmanCode, rootSize)

	if len(sorted) == 1 {
		for i := range table {
			table[i] = huffmanCode{bits: 0, value: sorted[0]}
		}
		return table
	}

	left := *count
	var code uint32
	next := 0
	open := -1
	subStart := 0
	var subBits uint32

	for length := uint32(1); length <= huffmanMaxCodeLength; length++ {
		for ; left[length] > 0; left[length]-- {
			sym := sorted[next]
			next++
			rev := reverseBits(code, length)
			code++

			if length <= rootBits {
				replicateValue(table[:rootSize], rev, 1<<length, huffmanCode{bits: uint8(length), value: sym})
				continue
			}

			prefix := int(rev & bitMask(rootBits))
			if prefix != open {
				subBits = nextTableBitSize(&left, length, rootBits)
				subStart = len(table)
				table = append(table, make([]huffmanCode, 1<<subBits)...)
				table[prefix] = huffmanCode{bits: uint8(subBits + rootBits), value: uint16(subStart - prefix)}
				open = prefix
			}

			sub := table[subStart : subStart+1<<subBits]
			replicateValue(sub, rev>>rootBits, 1<<(length-rootBits), huffmanCode{bits: uint8(length - rootBits), value: sym})
		}
		code <<= 1
	}

	return table
}

// simpleCodeLengths are the code lengths of the 1..4 symbol simple codes, by
// symbol count minus one; the last row is the four symbol tree-select variant.
var simpleCodeLengths = [5][]uint8{
	{0},
	{1, 1},
	{1, 2, 2},
	{2, 2, 2, 2},
	{1, 2, 3, 3},
}

// buildSimpleHuffmanTable builds the table of a simple prefix code. symbols
// are in stream order; kind is the symbol count minus one, or 4 for the
// second four symbol shape.
func buildSimpleHuffmanTable(symbols []uint16, kind uint32) []huffmanCode {
	lengths := simpleCodeLengths[kind]
	n := len(lengths)

	var count lengthHistogram
	sorted := make([]uint16, n)
	copy(sorted, symbols[:n])
	for _, l := range lengths {
		count[l]++
	}

	// Stream order gives lengths in non-decreasing order; sort by symbol
	// inside each run of equal lengths.
	for i := 1; i < n; i++ {
		for j := i; j > 0 && lengths[j-1] == lengths[j] && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	return buildHuffmanTable(huffmanTableBits, sorted, &count)
}

// buildCodeLengthsTable builds the single level table of the code length code.
func buildCodeLengthsTable(lengths *[codeLengthCodes]uint8, count *lengthHistogram) []huffmanCode {
	var buf [codeLengthCodes]uint16
	sorted := sortSymbols(lengths[:], count, buf[:])
	return buildHuffmanTable(huffmanMaxCodeLengthCodeLength, sorted, count)
}
