package brotli

import "github.com/sirupsen/logrus"

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// Result is the outcome of one Decompress call.
type Result int

const (
	// ResultError means the stream was rejected; see Decoder.ErrorCode.
	ResultError Result = iota
	// ResultSuccess means the stream is complete and all output was written.
	ResultSuccess
	// ResultNeedsMoreInput means all input was consumed and decoding can
	// continue once more is supplied.
	ResultNeedsMoreInput
	// ResultNeedsMoreOutput means the output slice is full.
	ResultNeedsMoreOutput
)

func (r Result) String() string {
	switch r {
	case ResultError:
		return "error"
	case ResultSuccess:
		return "success"
	case ResultNeedsMoreInput:
		return "needs more input"
	case ResultNeedsMoreOutput:
		return "needs more output"
	default:
		return "invalid"
	}
}

func (s *Decoder) saveErrorCode(e ErrorCode) Result {
	s.errorCode = e
	switch e {
	case codeSuccess:
		return ResultSuccess
	case codeNeedsMoreInput:
		return ResultNeedsMoreInput
	case codeNeedsMoreOutput:
		return ResultNeedsMoreOutput
	default:
		s.log.WithFields(logrus.Fields{
			"code":  e.String(),
			"state": s.state,
			"out":   s.partialPosOut,
		}).Debug("brotli: stream rejected")
		return ResultError
	}
}

// ErrorCode returns the code of the last step: one of the suspension codes
// while decoding, or a negative code after a failure.
func (s *Decoder) ErrorCode() ErrorCode {
	return s.errorCode
}

// TotalOut returns the number of bytes written out so far.
func (s *Decoder) TotalOut() int {
	return s.partialPosOut
}

// HasMoreOutput reports whether decoded bytes are waiting for output space.
func (s *Decoder) HasMoreOutput() bool {
	if s.errorCode < 0 {
		return false
	}
	return s.ringbuffer != nil && s.unwrittenBytes() != 0
}

// IsFinished reports whether the whole stream was decoded and written out.
func (s *Decoder) IsFinished() bool {
	return s.state == stateDone && !s.HasMoreOutput()
}

// Decompress decodes as much of in as possible into out. It returns the
// number of input bytes consumed and output bytes produced. Input that was
// consumed is retained by the decoder as needed; the caller passes only the
// unconsumed rest on the next call.
//
// Once ResultError has been returned every later call fails immediately.
func (s *Decoder) Decompress(in, out []byte) (consumed, produced int, res Result) {
	if s.errorCode < 0 {
		return 0, 0, ResultError
	}

	br := &s.br
	dst := out
	inPos := 0
	result := codeSuccess

	if s.state == stateDone {
		// Only output is left; bytes after the stream are never read.
		s.bufferLength = 0
	}

	if s.bufferLength == 0 {
		br.input = in
		br.bytePos = 0
	} else {
		// Finish the read that stopped inside the staged tail first, one
		// input byte at a time.
		result = codeNeedsMoreInput
		br.input = s.buffer[:s.bufferLength]
		br.bytePos = 0
	}

	// consumedNow reports the input position; while the staged tail is being
	// read, bytes moved into it are the only ones taken from in.
	consumedNow := func() int {
		if s.bufferLength != 0 {
			return inPos
		}
		return inPos + br.bytePos
	}

	for {
		if result != codeSuccess {
			if result == codeNeedsMoreInput && s.ringbuffer != nil {
				// Push out what is already decoded.
				if r := s.writeRingBuffer(&dst); r < 0 {
					result = r
				}
			}

			if result == codeNeedsMoreInput {
				if s.bufferLength != 0 {
					if br.bytePos == len(br.input) {
						// The staged read is complete; continue on the caller's input.
						s.bufferLength = 0
						result = codeSuccess
						br.input = in[inPos:]
						br.bytePos = 0
						continue
					}

					if inPos < len(in) {
						result = codeSuccess
						s.buffer[s.bufferLength] = in[inPos]
						s.bufferLength++
						inPos++
						br.input = s.buffer[:s.bufferLength]
						continue
					}

					break
				}

				// Stage the unread tail for the next call.
				n := copy(s.buffer[:], br.input[br.bytePos:])
				s.bufferLength = n
				inPos += br.bytePos + n
				break
			}

			// Failure or full output.
			if s.bufferLength != 0 {
				s.bufferLength = 0
			} else {
				br.unload()
				inPos += br.bytePos
			}
			break
		}

		switch s.state {
		case stateUninited:
			if !br.warmup() {
				result = codeNeedsMoreInput
				break
			}

			result = s.decodeWindowBits()
			if result != codeSuccess {
				break
			}

			if s.largeWindow {
				s.state = stateLargeWindowBits
				break
			}
			s.state = stateInitialize

		case stateLargeWindowBits:
			bits, ok := br.safeReadBits(6)
			if !ok {
				result = codeNeedsMoreInput
				break
			}
			if bits < largeMinWbits || bits > largeMaxWbits {
				result = ErrFormatWindowBits
				break
			}
			s.windowBits = bits
			s.state = stateInitialize
			fallthrough

		case stateInitialize:
			s.maxBackwardDistance = (1 << s.windowBits) - windowGap
			s.log.WithFields(logrus.Fields{
				"window_bits":  s.windowBits,
				"large_window": s.largeWindow,
			}).Debug("brotli: stream header")

			s.state = stateMetablockBegin
			fallthrough

		case stateMetablockBegin:
			s.metablockBegin()
			s.state = stateMetablockHeader
			fallthrough

		case stateMetablockHeader:
			result = s.decodeMetaBlockLength()
			if result != codeSuccess {
				break
			}

			s.log.WithFields(logrus.Fields{
				"last":         s.isLastMetablock,
				"length":       s.metaBlockRemainingLen,
				"uncompressed": s.isUncompressed,
				"metadata":     s.isMetadata,
			}).Debug("brotli: meta-block header")

			if s.isMetadata || s.isUncompressed {
				if !br.jumpToByteBoundary() {
					result = ErrFormatPadding1
					break
				}
			}

			if s.isMetadata {
				s.state = stateMetadata
				break
			}

			if s.metaBlockRemainingLen == 0 {
				s.state = stateMetablockDone
				break
			}

			if s.ringbuffer == nil {
				s.allocateRingBuffer()
			}

			if s.isUncompressed {
				s.state = stateUncompressed
				break
			}

			s.loopCounter = 0
			s.state = stateHuffmanCode0

		case stateUncompressed:
			result = s.copyUncompressedBlockToOutput(&dst)
			if result == codeSuccess {
				s.state = stateMetablockDone
			}

		case stateMetadata:
			for ; s.metaBlockRemainingLen > 0; s.metaBlockRemainingLen-- {
				if _, ok := br.safeReadBits(8); !ok {
					result = codeNeedsMoreInput
					break
				}
			}

			if result == codeSuccess {
				s.state = stateMetablockDone
			}

		case stateHuffmanCode0, stateHuffmanCode1, stateHuffmanCode2, stateHuffmanCode3:
			result = s.readBlockSwitchCodes()

		case stateMetablockHeader2:
			result = s.readDistanceParameters()
			if result != codeSuccess {
				break
			}
			s.state = stateContextModes
			fallthrough

		case stateContextModes:
			result = s.readContextModes()
			if result != codeSuccess {
				break
			}
			s.state = stateContextMap1
			fallthrough

		case stateContextMap1:
			result = s.decodeContextMap(s.numBlockTypes[treeTypeLiteral]<<literalContextBits, &s.numLiteralHtrees, &s.contextMap)
			if result != codeSuccess {
				break
			}
			s.detectTrivialLiteralBlockTypes()
			s.state = stateContextMap2
			fallthrough

		case stateContextMap2:
			result = s.decodeContextMap(s.numBlockTypes[treeTypeDistance]<<distanceContextBits, &s.numDistHtrees, &s.distContextMap)
			if result != codeSuccess {
				break
			}

			ndirect := s.numDirectDistanceCodes - numDistanceShortCodes
			alphabetSizeMax := distanceAlphabetSize(s.distancePostfixBits, ndirect, maxDistanceBits)
			alphabetSizeLimit := alphabetSizeMax
			if s.largeWindow {
				alphabetSizeMax = distanceAlphabetSize(s.distancePostfixBits, ndirect, largeMaxDistanceBits)
				alphabetSizeLimit = maxDistanceSymbol(ndirect, s.distancePostfixBits)
			}

			s.literalHgroup.init(numLiteralSymbols, numLiteralSymbols, s.numLiteralHtrees)
			s.insertCopyHgroup.init(numCommandSymbols, numCommandSymbols, s.numBlockTypes[treeTypeCommand])
			s.distanceHgroup.init(alphabetSizeMax, alphabetSizeLimit, s.numDistHtrees)

			s.loopCounter = 0
			s.state = stateTreeGroup
			fallthrough

		case stateTreeGroup:
			var group *huffmanTreeGroup
			switch s.loopCounter {
			case 0:
				group = &s.literalHgroup
			case 1:
				group = &s.insertCopyHgroup
			case 2:
				group = &s.distanceHgroup
			default:
				return consumedNow(), len(out) - len(dst), s.saveErrorCode(ErrUnreachable)
			}

			result = s.decodeTreeGroup(group)
			if result != codeSuccess {
				break
			}

			s.loopCounter++
			if s.loopCounter >= 3 {
				s.prepareLiteralDecoding()
				s.distContextMapSlice = s.distContextMap
				s.htreeCommand = s.insertCopyHgroup.htrees[0]
				s.loopCounter = 0
				s.state = stateCommandBegin
			}

		case stateCommandBegin, stateCommandInner, stateCommandPostDecodeLiterals, stateCommandPostWrapCopy:
			result = s.processCommands(false)
			if result == codeNeedsMoreInput {
				result = s.processCommands(true)
			}

		case stateCommandInnerWrite, stateCommandPostWrite1, stateCommandPostWrite2:
			result = s.writeRingBuffer(&dst)
			if result != codeSuccess {
				break
			}
			s.rotateRingBuffer()

			switch s.state {
			case stateCommandPostWrite1:
				// Move the part of a dictionary word written past the end.
				copy(s.ringbuffer, s.ringbuffer[s.ringbufferSize:s.ringbufferSize+s.pos])
				if s.metaBlockRemainingLen <= 0 {
					s.state = stateMetablockDone
				} else {
					s.state = stateCommandBegin
				}

			case stateCommandPostWrite2:
				s.state = stateCommandPostWrapCopy

			default:
				switch {
				case s.loopCounter != 0:
					s.state = stateCommandInner
				case s.metaBlockRemainingLen <= 0:
					s.state = stateMetablockDone
				default:
					s.state = stateCommandPostDecodeLiterals
				}
			}

		case stateMetablockDone:
			if s.metaBlockRemainingLen < 0 {
				result = ErrFormatBlockLength2
				break
			}

			s.metablockCleanup()
			if !s.isLastMetablock {
				s.state = stateMetablockBegin
				break
			}

			if !br.jumpToByteBoundary() {
				result = ErrFormatPadding2
				break
			}

			if s.bufferLength == 0 {
				br.unload()
			}

			s.state = stateDone
			fallthrough

		case stateDone:
			if s.ringbuffer != nil {
				result = s.writeRingBuffer(&dst)
				if result != codeSuccess {
					break
				}
			}

			return consumedNow(), len(out) - len(dst), s.saveErrorCode(result)

		default:
			result = ErrUnreachable
		}
	}

	return inPos, len(out) - len(dst), s.saveErrorCode(result)
}
