package brotli

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

const (
	windowGap       = 16
	largeMinWbits   = 10
	largeMaxWbits   = 30
	regularMaxWbits = 24
)

// decodeWindowBits reads the stream header. It consumes 1 to 8 bits and
// expects the accumulator to hold a full byte.
func (s *Decoder) decodeWindowBits() ErrorCode {
	br := &s.br
	allowLarge := s.largeWindow
	s.largeWindow = false

	if br.takeBits(1) == 0 {
		s.windowBits = 16
		return codeSuccess
	}

	if n := br.takeBits(3); n != 0 {
		s.windowBits = 17 + n
		return codeSuccess
	}

	n := br.takeBits(3)
	if n == 1 {
		if !allowLarge || br.takeBits(1) == 1 {
			return ErrFormatWindowBits
		}
		s.largeWindow = true
		return codeSuccess
	}

	if n != 0 {
		s.windowBits = 8 + n
		return codeSuccess
	}

	s.windowBits = 17
	return codeSuccess
}

// decodeVarLenUint8 reads a value in 0..255. value keeps the partial result
// between calls.
func (s *Decoder) decodeVarLenUint8(value *uint32) ErrorCode {
	br := &s.br
	for {
		switch s.substateDecodeUint8 {
		case stateDecodeUint8None:
			bit, ok := br.safeReadBits(1)
			if !ok {
				return codeNeedsMoreInput
			}
			if bit == 0 {
				*value = 0
				return codeSuccess
			}
			s.substateDecodeUint8 = stateDecodeUint8Short

		case stateDecodeUint8Short:
			bits, ok := br.safeReadBits(3)
			if !ok {
				return codeNeedsMoreInput
			}
			if bits == 0 {
				*value = 1
				s.substateDecodeUint8 = stateDecodeUint8None
				return codeSuccess
			}
			*value = bits
			s.substateDecodeUint8 = stateDecodeUint8Long

		case stateDecodeUint8Long:
			bits, ok := br.safeReadBits(*value)
			if !ok {
				return codeNeedsMoreInput
			}
			*value = (1 << *value) + bits
			s.substateDecodeUint8 = stateDecodeUint8None
			return codeSuccess

		default:
			return ErrUnreachable
		}
	}
}

// decodeMetaBlockLength reads ISLAST, ISLASTEMPTY, MLEN, ISUNCOMPRESSED and
// the metadata length, leaving the bit reader right after them.
func (s *Decoder) decodeMetaBlockLength() ErrorCode {
	br := &s.br
	for {
		switch s.substateMetablockHeader {
		case stateMetablockHeaderNone:
			bit, ok := br.safeReadBits(1)
			if !ok {
				return codeNeedsMoreInput
			}
			s.isLastMetablock = bit == 1
			s.metaBlockRemainingLen = 0
			s.isUncompressed = false
			s.isMetadata = false
			if !s.isLastMetablock {
				s.substateMetablockHeader = stateMetablockHeaderNibbles
				continue
			}
			s.substateMetablockHeader = stateMetablockHeaderEmpty

		case stateMetablockHeaderEmpty:
			bit, ok := br.safeReadBits(1)
			if !ok {
				return codeNeedsMoreInput
			}
			if bit != 0 {
				s.substateMetablockHeader = stateMetablockHeaderNone
				return codeSuccess
			}
			s.substateMetablockHeader = stateMetablockHeaderNibbles

		case stateMetablockHeaderNibbles:
			bits, ok := br.safeReadBits(2)
			if !ok {
				return codeNeedsMoreInput
			}
			s.sizeNibbles = bits + 4
			s.loopCounter = 0
			if bits == 3 {
				s.isMetadata = true
				s.substateMetablockHeader = stateMetablockHeaderReserved
				continue
			}
			s.substateMetablockHeader = stateMetablockHeaderSize

		case stateMetablockHeaderSize:
			for i := s.loopCounter; i < int(s.sizeNibbles); i++ {
				bits, ok := br.safeReadBits(4)
				if !ok {
					s.loopCounter = i
					return codeNeedsMoreInput
				}
				if i+1 == int(s.sizeNibbles) && s.sizeNibbles > 4 && bits == 0 {
					return ErrFormatExuberantNibble
				}
				s.metaBlockRemainingLen |= int(bits) << (i * 4)
			}
			s.substateMetablockHeader = stateMetablockHeaderUncompressed

		case stateMetablockHeaderUncompressed:
			if !s.isLastMetablock {
				bit, ok := br.safeReadBits(1)
				if !ok {
					return codeNeedsMoreInput
				}
				s.isUncompressed = bit == 1
			}
			s.metaBlockRemainingLen++
			s.substateMetablockHeader = stateMetablockHeaderNone
			return codeSuccess

		case stateMetablockHeaderReserved:
			bit, ok := br.safeReadBits(1)
			if !ok {
				return codeNeedsMoreInput
			}
			if bit != 0 {
				return ErrFormatReserved
			}
			s.substateMetablockHeader = stateMetablockHeaderBytes

		case stateMetablockHeaderBytes:
			bits, ok := br.safeReadBits(2)
			if !ok {
				return codeNeedsMoreInput
			}
			if bits == 0 {
				s.substateMetablockHeader = stateMetablockHeaderNone
				return codeSuccess
			}
			s.sizeNibbles = bits
			s.substateMetablockHeader = stateMetablockHeaderMetadata

		case stateMetablockHeaderMetadata:
			for i := s.loopCounter; i < int(s.sizeNibbles); i++ {
				bits, ok := br.safeReadBits(8)
				if !ok {
					s.loopCounter = i
					return codeNeedsMoreInput
				}
				if i+1 == int(s.sizeNibbles) && s.sizeNibbles > 1 && bits == 0 {
					return ErrFormatExuberantMetaNibble
				}
				s.metaBlockRemainingLen |= int(bits) << (i * 8)
			}
			s.metaBlockRemainingLen++
			s.substateMetablockHeader = stateMetablockHeaderNone
			return codeSuccess

		default:
			return ErrUnreachable
		}
	}
}

// readDistanceParameters reads NPOSTFIX and NDIRECT and sizes the context
// modes of the literal block types.
func (s *Decoder) readDistanceParameters() ErrorCode {
	bits, ok := s.br.safeReadBits(6)
	if !ok {
		return codeNeedsMoreInput
	}

	s.distancePostfixBits = bits & 3
	s.numDirectDistanceCodes = numDistanceShortCodes + (bits>>2)<<s.distancePostfixBits
	s.distancePostfixMask = bitMask(s.distancePostfixBits)
	s.contextModes = make([]byte, s.numBlockTypes[0])
	s.loopCounter = 0
	return codeSuccess
}

// readContextModes reads 2 bits per literal block type.
func (s *Decoder) readContextModes() ErrorCode {
	for i := s.loopCounter; i < int(s.numBlockTypes[0]); i++ {
		bits, ok := s.br.safeReadBits(2)
		if !ok {
			s.loopCounter = i
			return codeNeedsMoreInput
		}
		s.contextModes[i] = byte(bits)
	}

	return codeSuccess
}
