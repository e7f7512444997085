package brotli

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// decodeContextMap reads a context map of contextMapSize entries. numHtrees
// and contextMap are written as soon as they are known and keep their values
// across suspensions.
func (s *Decoder) decodeContextMap(contextMapSize uint32, numHtrees *uint32, contextMap *[]byte) ErrorCode {
	br := &s.br
	for {
		switch s.substateContextMap {
		case stateContextMapNone:
			if r := s.decodeVarLenUint8(numHtrees); r != codeSuccess {
				return r
			}
			*numHtrees++
			s.contextIndex = 0
			*contextMap = make([]byte, contextMapSize)
			if *numHtrees <= 1 {
				return codeSuccess
			}
			s.substateContextMap = stateContextMapReadPrefix

		case stateContextMapReadPrefix:
			bits, ok := br.safeGetBits(5)
			if !ok {
				return codeNeedsMoreInput
			}
			if bits&1 != 0 {
				s.maxRunLengthPrefix = (bits >> 1) + 1
				br.dropBits(5)
			} else {
				s.maxRunLengthPrefix = 0
				br.dropBits(1)
			}
			s.substateContextMap = stateContextMapHuffman

		case stateContextMapHuffman:
			alphabetSize := *numHtrees + s.maxRunLengthPrefix
			table, r := s.readHuffmanCode(alphabetSize, alphabetSize)
			if r != codeSuccess {
				return r
			}
			s.contextMapTable = table
			s.code = 0xFFFF
			s.substateContextMap = stateContextMapDecode

		case stateContextMapDecode:
			if r := s.decodeContextMapEntries(contextMapSize, *contextMap); r != codeSuccess {
				return r
			}
			s.substateContextMap = stateContextMapTransform

		case stateContextMapTransform:
			bit, ok := br.safeReadBits(1)
			if !ok {
				return codeNeedsMoreInput
			}
			if bit != 0 {
				s.inverseMoveToFrontTransform(*contextMap)
			}
			s.contextMapTable = nil
			s.substateContextMap = stateContextMapNone
			return codeSuccess

		default:
			return ErrUnreachable
		}
	}
}

// decodeContextMapEntries expands the run length coded entries. s.code holds
// a run length prefix whose extra bits are still missing, or 0xFFFF.
func (s *Decoder) decodeContextMapEntries(contextMapSize uint32, contextMap []byte) ErrorCode {
	br := &s.br
	maxRunLengthPrefix := s.maxRunLengthPrefix
	contextIndex := s.contextIndex
	code := s.code
	pending := code != 0xFFFF

	for contextIndex < contextMapSize || pending {
		if !pending {
			var ok bool
			code, ok = s.entropy.safeReadSymbol(s.contextMapTable)
			if !ok {
				s.code = 0xFFFF
				s.contextIndex = contextIndex
				return codeNeedsMoreInput
			}

			if code == 0 {
				contextMap[contextIndex] = 0
				contextIndex++
				continue
			}

			if code > maxRunLengthPrefix {
				contextMap[contextIndex] = byte(code - maxRunLengthPrefix)
				contextIndex++
				continue
			}
		}
		pending = false

		reps, ok := br.safeReadBits(code)
		if !ok {
			s.code = code
			s.contextIndex = contextIndex
			return codeNeedsMoreInput
		}

		reps += 1 << code
		if contextIndex+reps > contextMapSize {
			return ErrFormatContextMapRepeat
		}

		for ; reps > 0; reps-- {
			contextMap[contextIndex] = 0
			contextIndex++
		}
	}

	s.code = 0xFFFF
	s.contextIndex = contextIndex
	return codeSuccess
}

// inverseMoveToFrontTransform undoes the move-to-front coding of v in place.
func (s *Decoder) inverseMoveToFrontTransform(v []byte) {
	mtf := &s.mtf
	for i := range mtf {
		mtf[i] = byte(i)
	}

	for i, idx := range v {
		value := mtf[idx]
		v[i] = value
		copy(mtf[1:int(idx)+1], mtf[:idx])
		mtf[0] = value
	}
}

// detectTrivialLiteralBlockTypes marks the literal block types whose 64
// contexts all map to the same tree.
func (s *Decoder) detectTrivialLiteralBlockTypes() {
	s.trivialLiteralContexts = [8]uint32{}
	for i := uint32(0); i < s.numBlockTypes[0]; i++ {
		offset := i << literalContextBits
		ctx := s.contextMap[offset : offset+1<<literalContextBits]
		trivial := true
		for _, tree := range ctx[1:] {
			if tree != ctx[0] {
				trivial = false
				break
			}
		}
		if trivial {
			s.trivialLiteralContexts[i>>5] |= 1 << (i & 31)
		}
	}
}

// decodeTreeGroup reads the prefix codes of a tree group one by one.
func (s *Decoder) decodeTreeGroup(group *huffmanTreeGroup) ErrorCode {
	if s.substateTreeGroup != stateTreeGroupLoop {
		s.htreeIndex = 0
		s.substateTreeGroup = stateTreeGroupLoop
	}

	for s.htreeIndex < len(group.htrees) {
		table, r := s.readHuffmanCode(group.alphabetSizeMax, group.alphabetSizeLimit)
		if r != codeSuccess {
			return r
		}
		group.htrees[s.htreeIndex] = table
		s.htreeIndex++
	}

	s.substateTreeGroup = stateTreeGroupNone
	return codeSuccess
}
