package brotli

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// Prefix code ranges: a symbol selects an offset and a number of extra bits
// read after it.

const (
	numLiteralSymbols   = 256
	numCommandSymbols   = 704
	numBlockLenSymbols  = 26
	numInsertLenSymbols = 24
	numCopyLenSymbols   = 24

	numDistanceShortCodes = 16
	maxNpostfix           = 3
	maxNdirect            = 120
	maxDistanceBits       = 24
	largeMaxDistanceBits  = 62

	// maxAllowedDistance is the largest distance any stream may reference.
	maxAllowedDistance = 0x7FFFFFFC

	literalContextBits  = 6
	distanceContextBits = 2

	// Trees for symbol counts above this use readHuffmanCode's complex path
	// for code lengths, so scratch arrays are sized by it.
	maxCodeLengthSymbols = numCommandSymbols
)

type prefixCodeRange struct {
	offset uint32
	nbits  uint32
}

var blockLengthPrefixCode = [numBlockLenSymbols]prefixCodeRange{
	{1, 2}, {5, 2}, {9, 2}, {13, 2},
	{17, 3}, {25, 3}, {33, 3}, {41, 3},
	{49, 4}, {65, 4}, {81, 4}, {97, 4},
	{113, 5}, {145, 5}, {177, 5}, {209, 5},
	{241, 6}, {305, 6}, {369, 7}, {497, 8},
	{753, 9}, {1265, 10}, {2289, 11}, {4337, 12},
	{8433, 13}, {16625, 24},
}

var insertLengthPrefixCode = [numInsertLenSymbols]prefixCodeRange{
	{0, 0}, {1, 0}, {2, 0}, {3, 0},
	{4, 0}, {5, 0}, {6, 1}, {8, 1},
	{10, 2}, {14, 2}, {18, 3}, {26, 3},
	{34, 4}, {50, 4}, {66, 5}, {98, 5},
	{130, 6}, {194, 7}, {322, 8}, {578, 9},
	{1090, 10}, {2114, 12}, {6210, 14}, {22594, 24},
}

var copyLengthPrefixCode = [numCopyLenSymbols]prefixCodeRange{
	{2, 0}, {3, 0}, {4, 0}, {5, 0},
	{6, 0}, {7, 0}, {8, 0}, {9, 0},
	{10, 1}, {12, 1}, {14, 2}, {18, 2},
	{22, 3}, {30, 3}, {38, 4}, {54, 4},
	{70, 5}, {102, 5}, {134, 6}, {198, 7},
	{326, 8}, {582, 9}, {1094, 10}, {2118, 24},
}

// cmdLutElement is the decoded form of one insert-and-copy symbol.
type cmdLutElement struct {
	insertLenExtraBits uint8
	copyLenExtraBits   uint8
	// distanceCode is 0 when the command reuses the last distance without
	// reading a distance symbol, -1 otherwise.
	distanceCode    int8
	context         uint8
	insertLenOffset uint32
	copyLenOffset   uint32
}

// Per 64-symbol cell of the command alphabet: the first insert and copy
// length codes covered, and whether the last distance is implied.
var commandCells = [11]struct {
	insertBase, copyBase uint32
	implicitDistance     bool
}{
	{0, 0, true},
	{0, 8, true},
	{0, 0, false},
	{0, 8, false},
	{8, 0, false},
	{8, 8, false},
	{0, 16, false},
	{16, 0, false},
	{8, 16, false},
	{16, 8, false},
	{16, 16, false},
}

var cmdLut = buildCmdLut()

func buildCmdLut() (lut [numCommandSymbols]cmdLutElement) {
	for sym := range lut {
		cell := commandCells[sym>>6]
		insertCode := cell.insertBase + uint32(sym>>3)&7
		copyCode := cell.copyBase + uint32(sym)&7

		e := &lut[sym]
		e.insertLenOffset = insertLengthPrefixCode[insertCode].offset
		e.insertLenExtraBits = uint8(insertLengthPrefixCode[insertCode].nbits)
		e.copyLenOffset = copyLengthPrefixCode[copyCode].offset
		e.copyLenExtraBits = uint8(copyLengthPrefixCode[copyCode].nbits)
		e.context = uint8(min(copyCode, 3))
		e.distanceCode = -1
		if cell.implicitDistance {
			e.distanceCode = 0
		}
	}
	return lut
}

// distanceAlphabetSize is the size of the distance alphabet for the given
// postfix bits, direct codes and maximum extra bits.
func distanceAlphabetSize(npostfix, ndirect, maxBits uint32) uint32 {
	return numDistanceShortCodes + ndirect + (maxBits << (npostfix + 1))
}

var (
	maxDistanceSymbolBound = [maxNpostfix + 1]uint32{0, 4, 12, 28}
	maxDistanceSymbolDiff  = [maxNpostfix + 1]uint32{73, 126, 228, 424}
)

// maxDistanceSymbol bounds the large window distance alphabet so that no
// symbol can resolve to a distance above maxAllowedDistance.
func maxDistanceSymbol(ndirect, npostfix uint32) uint32 {
	postfix := uint32(1) << npostfix
	switch {
	case ndirect < maxDistanceSymbolBound[npostfix]:
		return ndirect + maxDistanceSymbolDiff[npostfix] + postfix
	case ndirect > maxDistanceSymbolBound[npostfix]+postfix:
		return ndirect + maxDistanceSymbolDiff[npostfix]
	default:
		return maxDistanceSymbolBound[npostfix] + maxDistanceSymbolDiff[npostfix] + postfix
	}
}
