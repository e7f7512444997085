package brotli

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// Short distance codes 1..15 reuse one of the last four distances, picked
// relative to distRbIdx, plus a small delta. Code 0 is handled separately.
var (
	shortCodeIndexOffset = [numDistanceShortCodes]int{3, 2, 1, 0, 3, 3, 3, 3, 3, 3, 2, 2, 2, 2, 2, 2}
	shortCodeValueOffset = [numDistanceShortCodes]int{0, 0, 0, 0, -1, 1, -2, 2, -3, 3, -1, 1, -2, 2, -3, 3}
)

// takeDistanceFromRingBuffer resolves a short distance code. Code 0 steps the
// ring index back; distRbCompensation undoes that when the distance ends up
// not being stored.
func (s *Decoder) takeDistanceFromRingBuffer(code uint32) {
	if code == 0 {
		s.distRbIdx--
		s.distanceCode = s.distRb[s.distRbIdx&3]
		s.distRbCompensation = 1
		return
	}

	d := s.distRb[(s.distRbIdx+shortCodeIndexOffset[code])&3] + shortCodeValueOffset[code]
	if d <= 0 {
		// Turned into an out of range distance, rejected by the caller.
		d = 0x7FFFFFFF
	}
	s.distanceCode = d
}

// readDistance decodes the distance of the current command into
// s.distanceCode. In safe mode nothing is consumed unless the whole distance
// could be read.
func (s *Decoder) readDistance(safe bool) bool {
	src := s.entropy
	table := s.distanceHgroup.htrees[s.distHtreeIndex]
	cp := src.begin()

	var code uint32
	if !safe {
		code = src.readSymbol(table)
	} else {
		var ok bool
		if code, ok = src.safeReadSymbol(table); !ok {
			src.abort(cp)
			return false
		}
	}

	s.distRbCompensation = 0
	switch {
	case code < numDistanceShortCodes:
		s.takeDistanceFromRingBuffer(code)

	case code < s.numDirectDistanceCodes:
		s.distanceCode = int(code) - numDistanceShortCodes + 1

	default:
		dcode := code - s.numDirectDistanceCodes
		postfix := dcode & s.distancePostfixMask
		dcode >>= s.distancePostfixBits
		nbits := (dcode >> 1) + 1
		offset := (int(2+dcode&1) << nbits) - 4

		var extra uint32
		if !safe {
			extra = src.readBits(nbits)
		} else {
			var ok bool
			if extra, ok = src.safeReadBits(nbits); !ok {
				src.abort(cp)
				return false
			}
		}

		if s.distancePostfixBits == 0 {
			s.distanceCode = int(s.numDirectDistanceCodes) + offset + int(extra) - numDistanceShortCodes + 1
		} else {
			s.distanceCode = int(s.numDirectDistanceCodes) + ((offset + int(extra)) << s.distancePostfixBits) +
				int(postfix) - numDistanceShortCodes + 1
		}
	}

	src.commit(cp)
	s.blockLength[treeTypeDistance]--
	return true
}

// readCommand decodes an insert-and-copy symbol with its extra bits and
// returns the insert length. The copy length goes to s.copyLength.
func (s *Decoder) readCommand(safe bool) (int, bool) {
	src := s.entropy
	cp := src.begin()

	var sym uint32
	if !safe {
		sym = src.readSymbol(s.htreeCommand)
	} else {
		var ok bool
		if sym, ok = src.safeReadSymbol(s.htreeCommand); !ok {
			return 0, false
		}
	}

	v := &cmdLut[sym]
	var insertExtra, copyExtra uint32
	if !safe {
		insertExtra = src.readBits(uint32(v.insertLenExtraBits))
		copyExtra = src.readBits(uint32(v.copyLenExtraBits))
	} else {
		var ok bool
		if insertExtra, ok = src.safeReadBits(uint32(v.insertLenExtraBits)); !ok {
			src.abort(cp)
			return 0, false
		}
		if copyExtra, ok = src.safeReadBits(uint32(v.copyLenExtraBits)); !ok {
			src.abort(cp)
			return 0, false
		}
	}
	src.commit(cp)

	s.distanceCode = int(v.distanceCode)
	s.distanceContext = int(v.context)
	s.distHtreeIndex = s.distContextMapSlice[s.distanceContext]
	s.copyLength = int(v.copyLenOffset + copyExtra)
	s.blockLength[treeTypeCommand]--
	return int(v.insertLenOffset + insertExtra), true
}
