package brotli

import "math/bits"

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// Order in which the code length code lengths are stored.
var codeLengthCodeOrder = [codeLengthCodes]byte{1, 2, 3, 4, 0, 5, 17, 6, 16, 7, 8, 9, 10, 11, 12, 13, 14, 15}

// Static prefix code for the code length code lengths, indexed by the next 4
// bits:
//
//	Symbol   Code
//	------   ----
//	0          00
//	1        0111
//	2         011
//	3          10
//	4          01
//	5        1111
var (
	codeLengthPrefixLength = [16]byte{2, 2, 2, 3, 2, 2, 2, 4, 2, 2, 2, 3, 2, 2, 2, 4}
	codeLengthPrefixValue  = [16]byte{0, 4, 3, 2, 0, 4, 3, 1, 0, 4, 3, 2, 0, 4, 3, 5}
)

// readHuffmanCode decodes one prefix code over an alphabet of
// alphabetSizeMax symbols of which only the first alphabetSizeLimit may be
// used. The returned table is only set on codeSuccess.
func (s *Decoder) readHuffmanCode(alphabetSizeMax, alphabetSizeLimit uint32) ([]huffmanCode, ErrorCode) {
	br := &s.br
	for {
		switch s.substateHuffman {
		case stateHuffmanNone:
			hskip, ok := br.safeReadBits(2)
			if !ok {
				return nil, codeNeedsMoreInput
			}
			s.subLoopCounter = hskip
			if hskip == 1 {
				s.substateHuffman = stateHuffmanSimpleSize
				continue
			}

			s.space = huffmanCodeLengthKraftSpace
			s.repeat = 0
			s.codeLengthHisto = lengthHistogram{}
			s.codeLengthCodeLengths = [codeLengthCodes]uint8{}
			s.substateHuffman = stateHuffmanComplex

		case stateHuffmanSimpleSize:
			nsym, ok := br.safeReadBits(2)
			if !ok {
				return nil, codeNeedsMoreInput
			}
			s.symbol = nsym
			s.subLoopCounter = 0
			s.substateHuffman = stateHuffmanSimpleRead

		case stateHuffmanSimpleRead:
			if r := s.readSimpleHuffmanSymbols(alphabetSizeMax, alphabetSizeLimit); r != codeSuccess {
				return nil, r
			}
			s.substateHuffman = stateHuffmanSimpleBuild

		case stateHuffmanSimpleBuild:
			kind := s.symbol
			if kind == 3 {
				treeSelect, ok := br.safeReadBits(1)
				if !ok {
					return nil, codeNeedsMoreInput
				}
				kind += treeSelect
			}
			s.substateHuffman = stateHuffmanNone
			return buildSimpleHuffmanTable(s.symbolsList[:], kind), codeSuccess

		case stateHuffmanComplex:
			if r := s.readCodeLengthCodeLengths(); r != codeSuccess {
				return nil, r
			}

			s.codeLengthTable = buildCodeLengthsTable(&s.codeLengthCodeLengths, &s.codeLengthHisto)
			s.codeLengthHisto = lengthHistogram{}
			clear(s.codeLengths[:alphabetSizeLimit])
			s.symbol = 0
			s.prevCodeLen = initialRepeatedCodeLength
			s.repeat = 0
			s.repeatCodeLen = 0
			s.space = huffmanKraftSpace
			s.substateHuffman = stateHuffmanLengthSymbols

		case stateHuffmanLengthSymbols:
			r := s.readSymbolCodeLengths(alphabetSizeLimit)
			if r == codeNeedsMoreInput {
				r = s.safeReadSymbolCodeLengths(alphabetSizeLimit)
			}
			if r != codeSuccess {
				return nil, r
			}

			if s.space != 0 {
				s.log.Debugf("brotli: invalid prefix code space %d", s.space)
				return nil, ErrFormatHuffmanSpace
			}

			sorted := sortSymbols(s.codeLengths[:alphabetSizeLimit], &s.codeLengthHisto, s.sortedSymbols[:])
			s.substateHuffman = stateHuffmanNone
			return buildHuffmanTable(huffmanTableBits, sorted, &s.codeLengthHisto), codeSuccess

		default:
			return nil, ErrUnreachable
		}
	}
}

// readSimpleHuffmanSymbols reads the 1..4 symbols of a simple prefix code.
func (s *Decoder) readSimpleHuffmanSymbols(alphabetSizeMax, alphabetSizeLimit uint32) ErrorCode {
	br := &s.br
	maxBits := uint32(bits.Len32(alphabetSizeMax - 1))
	numSymbols := s.symbol

	for i := s.subLoopCounter; i <= numSymbols; i++ {
		v, ok := br.safeReadBits(maxBits)
		if !ok {
			s.subLoopCounter = i
			return codeNeedsMoreInput
		}
		if v >= alphabetSizeLimit {
			return ErrFormatSimpleHuffmanAlpha
		}
		s.symbolsList[i] = uint16(v)
	}

	for i := uint32(0); i < numSymbols; i++ {
		for k := i + 1; k <= numSymbols; k++ {
			if s.symbolsList[i] == s.symbolsList[k] {
				return ErrFormatSimpleHuffmanSame
			}
		}
	}

	return codeSuccess
}

// readCodeLengthCodeLengths reads the lengths of the code length code,
// starting at the HSKIP position kept in subLoopCounter.
func (s *Decoder) readCodeLengthCodeLengths() ErrorCode {
	br := &s.br
	numCodes := s.repeat
	space := s.space

	for i := s.subLoopCounter; i < codeLengthCodes; i++ {
		ix, ok := br.safeGetBits(4)
		if !ok {
			avail := br.availableBits()
			ix = uint32(br.bitsUnmasked()) & 0xF
			if uint32(codeLengthPrefixLength[ix]) > avail {
				s.subLoopCounter = i
				s.repeat = numCodes
				s.space = space
				return codeNeedsMoreInput
			}
		}

		v := codeLengthPrefixValue[ix]
		br.dropBits(uint32(codeLengthPrefixLength[ix]))
		s.codeLengthCodeLengths[codeLengthCodeOrder[i]] = v
		if v != 0 {
			space -= huffmanCodeLengthKraftSpace >> v
			numCodes++
			s.codeLengthHisto[v]++
			// Stop once the space is used up or oversubscribed.
			if space-1 >= huffmanCodeLengthKraftSpace {
				break
			}
		}
	}

	if numCodes != 1 && space != 0 {
		return ErrFormatClSpace
	}

	return codeSuccess
}

// processSingleCodeLength records a literal code length for the current symbol.
func (s *Decoder) processSingleCodeLength(codeLen uint32) {
	s.repeat = 0
	if codeLen != 0 {
		s.codeLengths[s.symbol] = uint8(codeLen)
		s.prevCodeLen = codeLen
		s.space -= huffmanKraftSpace >> codeLen
		s.codeLengthHisto[codeLen]++
	}
	s.symbol++
}

// processRepeatedCodeLength expands code 16 (repeat previous nonzero length)
// or 17 (repeat zero). Consecutive repeats of the same code scale the count.
func (s *Decoder) processRepeatedCodeLength(codeLen, repeatDelta, alphabetSize uint32) {
	extraBits := uint32(3)
	newLen := uint32(0)
	if codeLen == codeLengthRepeatCode {
		newLen = s.prevCodeLen
		extraBits = 2
	}

	if s.repeatCodeLen != newLen {
		s.repeat = 0
		s.repeatCodeLen = newLen
	}

	oldRepeat := s.repeat
	if s.repeat > 0 {
		s.repeat -= 2
		s.repeat <<= extraBits
	}
	s.repeat += repeatDelta + 3
	delta := s.repeat - oldRepeat

	if s.symbol+delta > alphabetSize {
		// Forces a space error once the loop ends.
		s.symbol = alphabetSize
		s.space = 0xFFFFF
		return
	}

	if s.repeatCodeLen != 0 {
		last := s.symbol + delta
		for ; s.symbol < last; s.symbol++ {
			s.codeLengths[s.symbol] = uint8(s.repeatCodeLen)
		}
		s.space -= delta << (huffmanMaxCodeLength - s.repeatCodeLen)
		s.codeLengthHisto[s.repeatCodeLen] += uint16(delta)
	} else {
		s.symbol += delta
	}
}

// readSymbolCodeLengths reads code lengths while at least 4 input bytes are
// available, so every code length with its extra bits fits one refill.
func (s *Decoder) readSymbolCodeLengths(alphabetSize uint32) ErrorCode {
	br := &s.br
	for s.symbol < alphabetSize && s.space > 0 {
		if !br.checkInputAmount(shortFillBitWindowRead) {
			return codeNeedsMoreInput
		}

		e := s.codeLengthTable[br.get16BitsUnmasked()&bitMask(huffmanMaxCodeLengthCodeLength)]
		br.dropBits(uint32(e.bits))
		codeLen := uint32(e.value)
		if codeLen < codeLengthRepeatCode {
			s.processSingleCodeLength(codeLen)
			continue
		}

		extraBits := codeLen - 14
		repeatDelta := uint32(br.bitsUnmasked()) & bitMask(extraBits)
		br.dropBits(extraBits)
		s.processRepeatedCodeLength(codeLen, repeatDelta, alphabetSize)
	}

	return codeSuccess
}

// safeReadSymbolCodeLengths is readSymbolCodeLengths pulling one byte at a
// time; a code length is only consumed together with its extra bits.
func (s *Decoder) safeReadSymbolCodeLengths(alphabetSize uint32) ErrorCode {
	br := &s.br
	for s.symbol < alphabetSize && s.space > 0 {
		var e huffmanCode
		for {
			avail := br.availableBits()
			e = s.codeLengthTable[uint32(br.bitsUnmasked())&bitMask(huffmanMaxCodeLengthCodeLength)]
			if uint32(e.bits) <= avail {
				if e.value < codeLengthRepeatCode || uint32(e.bits)+uint32(e.value)-14 <= avail {
					break
				}
			}
			if !br.pullByte() {
				return codeNeedsMoreInput
			}
		}

		br.dropBits(uint32(e.bits))
		codeLen := uint32(e.value)
		if codeLen < codeLengthRepeatCode {
			s.processSingleCodeLength(codeLen)
			continue
		}

		extraBits := codeLen - 14
		repeatDelta := br.takeBits(extraBits)
		s.processRepeatedCodeLength(codeLen, repeatDelta, alphabetSize)
	}

	return codeSuccess
}
