package brotli

import "encoding/binary"

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// Bit reading over a byte slice. Bits are consumed LSB first. The accumulator
// holds up to 64 bits; val >> bitPos are the unread bits and bitPos == 64 means
// the accumulator is empty.

// shortFillBitWindowRead is the input a 16-bit refill may touch.
const shortFillBitWindowRead = 4

func bitMask(n uint32) uint32 {
	return uint32(uint64(1)<<n - 1)
}

type bitReader struct {
	val     uint64
	bitPos  uint32
	input   []byte
	bytePos int
}

// bitReaderState is a checkpoint of the reader position. The input slice is
// not part of it: checkpoints never outlive one call of the driver.
type bitReaderState struct {
	val     uint64
	bitPos  uint32
	bytePos int
}

func (br *bitReader) init() {
	br.val = 0
	br.bitPos = 64
}

func (br *bitReader) save() bitReaderState {
	return bitReaderState{val: br.val, bitPos: br.bitPos, bytePos: br.bytePos}
}

func (br *bitReader) restore(st bitReaderState) {
	br.val = st.val
	br.bitPos = st.bitPos
	br.bytePos = st.bytePos
}

func (br *bitReader) availableBits() uint32 {
	return 64 - br.bitPos
}

// remainingBytes counts unread whole bytes, both in the accumulator and in the
// input slice.
func (br *bitReader) remainingBytes() int {
	return len(br.input) - br.bytePos + int(br.availableBits()>>3)
}

// checkInputAmount reports whether at least num bytes are left in the input,
// not counting the accumulator.
func (br *bitReader) checkInputAmount(num int) bool {
	return len(br.input)-br.bytePos >= num
}

// fillBitWindow guarantees at least 32 bits in the accumulator. The caller
// must have checked that 4 input bytes are available.
func (br *bitReader) fillBitWindow() {
	if br.bitPos >= 32 {
		br.val >>= 32
		br.bitPos -= 32
		br.val |= uint64(binary.LittleEndian.Uint32(br.input[br.bytePos:])) << 32
		br.bytePos += 4
	}
}

// pullByte moves one input byte into the accumulator.
func (br *bitReader) pullByte() bool {
	if br.bytePos == len(br.input) {
		return false
	}

	br.val >>= 8
	br.val |= uint64(br.input[br.bytePos]) << 56
	br.bitPos -= 8
	br.bytePos++
	return true
}

func (br *bitReader) bitsUnmasked() uint64 {
	return br.val >> br.bitPos
}

func (br *bitReader) get16BitsUnmasked() uint32 {
	br.fillBitWindow()
	return uint32(br.bitsUnmasked())
}

func (br *bitReader) getBits(n uint32) uint32 {
	br.fillBitWindow()
	return uint32(br.bitsUnmasked()) & bitMask(n)
}

func (br *bitReader) safeGetBits(n uint32) (uint32, bool) {
	for br.availableBits() < n {
		if !br.pullByte() {
			return 0, false
		}
	}

	return uint32(br.bitsUnmasked()) & bitMask(n), true
}

func (br *bitReader) dropBits(n uint32) {
	br.bitPos += n
}

// takeBits reads n bits that are known to be in the accumulator.
func (br *bitReader) takeBits(n uint32) uint32 {
	v := uint32(br.bitsUnmasked()) & bitMask(n)
	br.dropBits(n)
	return v
}

func (br *bitReader) readBits(n uint32) uint32 {
	br.fillBitWindow()
	return br.takeBits(n)
}

func (br *bitReader) safeReadBits(n uint32) (uint32, bool) {
	for br.availableBits() < n {
		if !br.pullByte() {
			return 0, false
		}
	}

	return br.takeBits(n), true
}

// unload hands whole unread accumulator bytes back to the input slice, so that
// the caller sees them as not consumed. Bytes that came from a previous input
// slice stay in the accumulator.
func (br *bitReader) unload() {
	unusedBytes := int(br.availableBits() >> 3)
	if unusedBytes > br.bytePos {
		unusedBytes = br.bytePos
	}

	unusedBits := uint32(unusedBytes) << 3
	br.bytePos -= unusedBytes
	if unusedBits == 64 {
		br.val = 0
	} else {
		br.val <<= unusedBits
	}

	br.bitPos += unusedBits
}

// jumpToByteBoundary skips to the next byte boundary and reports whether all
// skipped bits were zero.
func (br *bitReader) jumpToByteBoundary() bool {
	pad := br.availableBits() & 7
	if pad == 0 {
		return true
	}

	return br.takeBits(pad) == 0
}

// peekByte returns the byte offset bytes ahead of the current byte-aligned
// position, or -1 if it is not buffered yet or the reader is not aligned.
func (br *bitReader) peekByte(offset int) int {
	avail := br.availableBits()
	if avail&7 != 0 {
		return -1
	}

	inAcc := int(avail >> 3)
	if offset < inAcc {
		return int((br.bitsUnmasked() >> (uint(offset) << 3)) & 0xFF)
	}

	offset -= inAcc
	if offset < len(br.input)-br.bytePos {
		return int(br.input[br.bytePos+offset])
	}

	return -1
}

// copyBytes copies num byte-aligned bytes to dst, draining the accumulator
// first. num must not exceed remainingBytes. The reader has to be warmed up
// again afterwards.
func (br *bitReader) copyBytes(dst []byte, num int) {
	for br.availableBits() >= 8 && num > 0 {
		dst[0] = byte(br.bitsUnmasked())
		br.dropBits(8)
		dst = dst[1:]
		num--
	}

	copy(dst, br.input[br.bytePos:br.bytePos+num])
	br.bytePos += num
}

// warmup makes sure the accumulator is not empty.
func (br *bitReader) warmup() bool {
	if br.availableBits() == 0 {
		return br.pullByte()
	}

	return true
}
