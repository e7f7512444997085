package brotli

import (
	"github.com/inovacc/brdecode/compression/dictionary"
	"github.com/sirupsen/logrus"
)

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// The ring buffer holds the last ringbufferSize decoded bytes. pos is the
// write position inside the current round; rbRoundtrips counts completed
// rounds, so rbRoundtrips*ringbufferSize + pos bytes have been decoded and
// partialPosOut of them handed to the caller.
//
// A dictionary word may be written past ringbufferSize. The slack after the
// buffer absorbs it and the overflow is moved to the front once the round
// has been written out.

// ringBufferWriteAheadSlack covers a transformed dictionary word started at
// the last position of a round.
const ringBufferWriteAheadSlack = 42 + dictionary.MaxWordLength

// allocateRingBuffer sizes and allocates the ring buffer when the first
// meta-block with data starts. The size is 1 << windowBits, except that a
// stream known to end within this meta-block gets the smallest power of two
// that still holds the custom dictionary and the remaining output.
func (s *Decoder) allocateRingBuffer() {
	windowSize := 1 << s.windowBits
	isLast := s.isLastMetablock

	if s.isUncompressed {
		// An empty last meta-block right after the data also ends the stream.
		if next := s.br.peekByte(s.metaBlockRemainingLen); next != -1 && next&3 == 3 {
			isLast = true
		}
	}

	customDict := s.customDict
	if maxDictSize := windowSize - windowGap; len(customDict) > maxDictSize {
		customDict = customDict[len(customDict)-maxDictSize:]
	}
	s.customDictSize = len(customDict)

	size := windowSize
	if isLast {
		for size >= 2*(s.customDictSize+s.metaBlockRemainingLen) && size > 32 {
			size >>= 1
		}
	}

	s.ringbufferSize = size
	s.ringbufferMask = size - 1
	s.ringbuffer = make([]byte, size+ringBufferWriteAheadSlack)

	if s.customDictSize != 0 {
		offset := -s.customDictSize & s.ringbufferMask
		copy(s.ringbuffer[offset:], customDict)
	}
	s.customDict = nil

	s.log.WithFields(logrus.Fields{
		"size":        size,
		"window_bits": s.windowBits,
		"custom_dict": s.customDictSize,
	}).Debug("brotli: ring buffer allocated")
}

// unwrittenBytes counts decoded bytes not yet handed to the caller.
func (s *Decoder) unwrittenBytes() int {
	return s.rbRoundtrips*s.ringbufferSize + s.pos - s.partialPosOut
}

// writeRingBuffer copies pending bytes of the current round to out and
// advances it. It returns codeNeedsMoreOutput when out is too short to take
// all of them.
func (s *Decoder) writeRingBuffer(out *[]byte) ErrorCode {
	pos := min(s.pos, s.ringbufferSize)
	toWrite := s.rbRoundtrips*s.ringbufferSize + pos - s.partialPosOut
	n := min(len(*out), toWrite)

	if s.metaBlockRemainingLen < 0 {
		return ErrFormatBlockLength1
	}

	start := s.partialPosOut & s.ringbufferMask
	copy(*out, s.ringbuffer[start:start+n])
	*out = (*out)[n:]
	s.partialPosOut += n

	if n < toWrite {
		return codeNeedsMoreOutput
	}
	return codeSuccess
}

// rotateRingBuffer starts a new round once the previous one has been written.
// From then on the whole window is addressable.
func (s *Decoder) rotateRingBuffer() {
	s.pos -= s.ringbufferSize
	s.rbRoundtrips++
	s.maxDistance = s.maxBackwardDistance
}

// copyUncompressedBlockToOutput moves the bytes of an uncompressed meta-block
// from the input to the ring buffer, writing the buffer out whenever it fills.
func (s *Decoder) copyUncompressedBlockToOutput(out *[]byte) ErrorCode {
	for {
		switch s.substateUncompressed {
		case stateUncompressedNone:
			nbytes := min(s.br.remainingBytes(), s.metaBlockRemainingLen, s.ringbufferSize-s.pos)
			s.br.copyBytes(s.ringbuffer[s.pos:], nbytes)
			s.pos += nbytes
			s.metaBlockRemainingLen -= nbytes

			if s.pos < s.ringbufferSize {
				if s.metaBlockRemainingLen == 0 {
					return codeSuccess
				}
				return codeNeedsMoreInput
			}
			s.substateUncompressed = stateUncompressedWrite

		case stateUncompressedWrite:
			if r := s.writeRingBuffer(out); r != codeSuccess {
				return r
			}
			s.rotateRingBuffer()
			s.substateUncompressed = stateUncompressedNone

		default:
			return ErrUnreachable
		}
	}
}
