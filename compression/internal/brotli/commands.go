package brotli

import "github.com/inovacc/brdecode/compression/dictionary"

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// commandInputBytes is the input the fast command loop needs before each
// step: a block switch, a command and a distance with their extra bits plus
// the accumulator refills.
const commandInputBytes = 28

func (s *Decoder) checkInput(safe bool, num int) bool {
	return safe || s.entropy.checkInputAmount(num)
}

func (s *Decoder) readLiteral(safe bool, table []huffmanCode) (uint32, bool) {
	if !safe {
		return s.entropy.readSymbol(table), true
	}
	return s.entropy.safeReadSymbol(table)
}

// processCommands runs the command loop of a compressed meta-block until the
// meta-block ends, the ring buffer fills up or input runs out. The fast
// variant may stop early with codeNeedsMoreInput; the caller then retries the
// same step with safe set.
func (s *Decoder) processCommands(safe bool) ErrorCode {
	if !s.checkInput(safe, commandInputBytes) {
		return codeNeedsMoreInput
	}

	pos := s.pos
	i := s.loopCounter
	result := codeSuccess

loop:
	for {
		switch s.state {
		case stateCommandBegin:
			if !s.checkInput(safe, commandInputBytes) {
				result = codeNeedsMoreInput
				break loop
			}

			if s.blockLength[treeTypeCommand] == 0 {
				if !s.decodeCommandBlockSwitch(safe) {
					result = codeNeedsMoreInput
					break loop
				}
				continue
			}

			insertLen, ok := s.readCommand(safe)
			if !ok {
				result = codeNeedsMoreInput
				break loop
			}

			i = insertLen
			if i == 0 {
				s.state = stateCommandPostDecodeLiterals
				continue
			}
			s.metaBlockRemainingLen -= i
			s.state = stateCommandInner

		case stateCommandInner:
			for {
				if !s.checkInput(safe, commandInputBytes) {
					result = codeNeedsMoreInput
					break loop
				}

				if s.blockLength[treeTypeLiteral] == 0 {
					if !s.decodeLiteralBlockSwitch(safe) {
						result = codeNeedsMoreInput
						break loop
					}
				}

				table := s.literalHtree
				if !s.trivialLiteralContext {
					p1 := s.ringbuffer[(pos-1)&s.ringbufferMask]
					p2 := s.ringbuffer[(pos-2)&s.ringbufferMask]
					table = s.literalHgroup.htrees[s.contextMapSlice[getContext(p1, p2, s.contextLookup)]]
				}

				literal, ok := s.readLiteral(safe, table)
				if !ok {
					result = codeNeedsMoreInput
					break loop
				}

				s.ringbuffer[pos] = byte(literal)
				s.blockLength[treeTypeLiteral]--
				pos++
				i--
				if pos == s.ringbufferSize {
					s.state = stateCommandInnerWrite
					break loop
				}
				if i == 0 {
					break
				}
			}

			if s.metaBlockRemainingLen <= 0 {
				s.state = stateMetablockDone
				break loop
			}
			s.state = stateCommandPostDecodeLiterals

		case stateCommandPostDecodeLiterals:
			if s.distanceCode >= 0 {
				// Implicit distance: repeat the last one.
				s.distRbIdx--
				s.distanceCode = s.distRb[s.distRbIdx&3]
				s.distRbCompensation = 1
			} else {
				if s.blockLength[treeTypeDistance] == 0 {
					if !s.decodeDistanceBlockSwitch(safe) {
						result = codeNeedsMoreInput
						break loop
					}
				}
				if !s.readDistance(safe) {
					result = codeNeedsMoreInput
					break loop
				}
			}

			if s.maxDistance != s.maxBackwardDistance {
				s.maxDistance = min(pos+s.customDictSize, s.maxBackwardDistance)
			}

			i = s.copyLength
			if s.distanceCode > s.maxDistance {
				if s.distanceCode > maxAllowedDistance {
					s.log.Debugf("brotli: distance %d beyond the format limit", s.distanceCode)
					result = ErrFormatDistance
					break loop
				}

				n, r := s.copyDictionaryWord(pos, i)
				if r != codeSuccess {
					result = r
					break loop
				}

				pos += n
				s.metaBlockRemainingLen -= n
				if pos >= s.ringbufferSize {
					s.state = stateCommandPostWrite1
					break loop
				}
			} else {
				s.distRb[s.distRbIdx&3] = s.distanceCode
				s.distRbIdx++
				s.metaBlockRemainingLen -= i
				s.state = stateCommandPostWrapCopy
				continue
			}

			if s.metaBlockRemainingLen <= 0 {
				s.state = stateMetablockDone
				break loop
			}
			s.state = stateCommandBegin

		case stateCommandPostWrapCopy:
			for i > 0 {
				n := s.copyChunk(pos, i)
				pos += n
				i -= n
				if pos == s.ringbufferSize {
					s.state = stateCommandPostWrite2
					break loop
				}
			}

			if s.metaBlockRemainingLen <= 0 {
				s.state = stateMetablockDone
				break loop
			}
			s.state = stateCommandBegin

		default:
			result = ErrUnreachable
			break loop
		}
	}

	s.pos = pos
	s.loopCounter = i
	return result
}

// copyChunk copies the longest prefix of a back-reference at pos that neither
// crosses the ring buffer end on either side nor reads bytes it is about to
// write, and returns its length. Repeating it yields the byte-by-byte
// semantics of overlapping copies.
func (s *Decoder) copyChunk(pos, length int) int {
	src := (pos - s.distanceCode) & s.ringbufferMask
	n := min(length, s.ringbufferSize-pos, s.ringbufferSize-src)
	if src < pos {
		n = min(n, pos-src)
	}

	copy(s.ringbuffer[pos:pos+n], s.ringbuffer[src:src+n])
	return n
}

// copyDictionaryWord resolves a distance beyond the window to a static
// dictionary word and writes its transformed form at pos.
func (s *Decoder) copyDictionaryWord(pos, length int) (int, ErrorCode) {
	if length < dictionary.MinWordLength || length > dictionary.MaxWordLength {
		return 0, ErrFormatDictionary
	}
	if s.dictionary == nil {
		return 0, ErrDictionaryNotSet
	}

	shift := s.dictionary.SizeBits(length)
	if shift == 0 {
		return 0, ErrFormatDictionary
	}

	wordID := s.distanceCode - s.maxDistance - 1
	index := wordID & int(bitMask(shift))
	transformIdx := wordID >> shift

	// The ring index step taken for a repeated distance is undone: dictionary
	// references are not remembered.
	s.distRbIdx += s.distRbCompensation

	if transformIdx >= s.transforms.Len() {
		s.log.Debugf("brotli: transform %d out of range", transformIdx)
		return 0, ErrFormatTransform
	}

	word, ok := s.dictionary.Word(length, index)
	if !ok {
		return 0, ErrFormatDictionary
	}

	return s.transforms.Apply(s.ringbuffer[pos:], word, transformIdx), codeSuccess
}
