package brotli

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

const (
	treeTypeLiteral = iota
	treeTypeCommand
	treeTypeDistance
)

// readBlockSwitchCodes reads NBLTYPES and the block type and block count
// codes of each tree type, followed by the first block length. loopCounter
// is the tree type being read.
func (s *Decoder) readBlockSwitchCodes() ErrorCode {
	for {
		switch s.state {
		case stateHuffmanCode0:
			if s.loopCounter >= 3 {
				s.state = stateMetablockHeader2
				return codeSuccess
			}
			t := s.loopCounter
			if r := s.decodeVarLenUint8(&s.numBlockTypes[t]); r != codeSuccess {
				return r
			}
			s.numBlockTypes[t]++
			if s.numBlockTypes[t] < 2 {
				s.loopCounter++
				continue
			}
			s.state = stateHuffmanCode1

		case stateHuffmanCode1:
			t := s.loopCounter
			alphabetSize := s.numBlockTypes[t] + 2
			table, r := s.readHuffmanCode(alphabetSize, alphabetSize)
			if r != codeSuccess {
				return r
			}
			s.blockTypeTrees[t] = table
			s.state = stateHuffmanCode2

		case stateHuffmanCode2:
			t := s.loopCounter
			table, r := s.readHuffmanCode(numBlockLenSymbols, numBlockLenSymbols)
			if r != codeSuccess {
				return r
			}
			s.blockLenTrees[t] = table
			s.state = stateHuffmanCode3

		case stateHuffmanCode3:
			t := s.loopCounter
			length, ok := s.safeReadBlockLength(s.blockLenTrees[t])
			if !ok {
				return codeNeedsMoreInput
			}
			s.blockLength[t] = length
			s.loopCounter++
			s.state = stateHuffmanCode0

		default:
			return ErrUnreachable
		}
	}
}

// readBlockLength decodes a block count with the fast symbol source.
func (s *Decoder) readBlockLength(table []huffmanCode) uint32 {
	code := s.entropy.readSymbol(table)
	r := blockLengthPrefixCode[code]
	return r.offset + s.entropy.readBits(r.nbits)
}

// safeReadBlockLength decodes a block count, remembering the prefix symbol
// when only its extra bits are missing.
func (s *Decoder) safeReadBlockLength(table []huffmanCode) (uint32, bool) {
	var index uint32
	if s.substateReadBlockLength == stateReadBlockLengthNone {
		var ok bool
		if index, ok = s.entropy.safeReadSymbol(table); !ok {
			return 0, false
		}
	} else {
		index = s.blockLengthIndex
	}

	r := blockLengthPrefixCode[index]
	bits, ok := s.entropy.safeReadBits(r.nbits)
	if !ok {
		s.blockLengthIndex = index
		s.substateReadBlockLength = stateReadBlockLengthSuffix
		return 0, false
	}

	s.substateReadBlockLength = stateReadBlockLengthNone
	return r.offset + bits, true
}

// decodeBlockTypeAndLength reads a block switch command for tree type t. In
// safe mode the reader is rolled back unless both parts could be read.
func (s *Decoder) decodeBlockTypeAndLength(safe bool, t int) bool {
	maxBlockType := s.numBlockTypes[t]
	if maxBlockType <= 1 {
		// A single block type never switches; start another maximal block.
		s.blockLength[t] = 1 << 24
		return true
	}

	typeTree := s.blockTypeTrees[t]
	lenTree := s.blockLenTrees[t]
	var blockType uint32

	if !safe {
		blockType = s.entropy.readSymbol(typeTree)
		s.blockLength[t] = s.readBlockLength(lenTree)
	} else {
		cp := s.entropy.begin()
		var ok bool
		if blockType, ok = s.entropy.safeReadSymbol(typeTree); !ok {
			s.entropy.abort(cp)
			return false
		}
		length, ok := s.safeReadBlockLength(lenTree)
		if !ok {
			s.substateReadBlockLength = stateReadBlockLengthNone
			s.entropy.abort(cp)
			return false
		}
		s.entropy.commit(cp)
		s.blockLength[t] = length
	}

	rb := s.blockTypeRb[t*2 : t*2+2]
	switch blockType {
	case 0:
		blockType = rb[0]
	case 1:
		blockType = rb[1] + 1
	default:
		blockType -= 2
	}
	if blockType >= maxBlockType {
		blockType -= maxBlockType
	}

	rb[0] = rb[1]
	rb[1] = blockType
	return true
}

// prepareLiteralDecoding selects the context map slice, context mode and, for
// trivial block types, the single literal tree of the current block type.
func (s *Decoder) prepareLiteralDecoding() {
	blockType := s.blockTypeRb[1]
	contextOffset := blockType << literalContextBits
	s.contextMapSlice = s.contextMap[contextOffset:]
	s.trivialLiteralContext = (s.trivialLiteralContexts[blockType>>5]>>(blockType&31))&1 != 0
	s.literalHtree = s.literalHgroup.htrees[s.contextMapSlice[0]]
	s.contextLookup = getContextLUT(int(s.contextModes[blockType] & 3))
}

func (s *Decoder) decodeLiteralBlockSwitch(safe bool) bool {
	if !s.decodeBlockTypeAndLength(safe, treeTypeLiteral) {
		return false
	}
	s.prepareLiteralDecoding()
	return true
}

func (s *Decoder) decodeCommandBlockSwitch(safe bool) bool {
	if !s.decodeBlockTypeAndLength(safe, treeTypeCommand) {
		return false
	}
	s.htreeCommand = s.insertCopyHgroup.htrees[s.blockTypeRb[3]]
	return true
}

func (s *Decoder) decodeDistanceBlockSwitch(safe bool) bool {
	if !s.decodeBlockTypeAndLength(safe, treeTypeDistance) {
		return false
	}
	s.distContextMapSlice = s.distContextMap[s.blockTypeRb[5]<<distanceContextBits:]
	s.distHtreeIndex = s.distContextMapSlice[s.distanceContext]
	return true
}
