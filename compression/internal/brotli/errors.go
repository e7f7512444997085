package brotli

import "fmt"

/* Copyright 2013 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

// ErrorCode is the outcome of one decoding step. Positive codes are not
// failures; negative codes identify why the stream was rejected.
type ErrorCode int

const (
	codeNoError         ErrorCode = 0
	codeSuccess         ErrorCode = 1
	codeNeedsMoreInput  ErrorCode = 2
	codeNeedsMoreOutput ErrorCode = 3

	ErrFormatExuberantNibble     ErrorCode = -1
	ErrFormatReserved            ErrorCode = -2
	ErrFormatExuberantMetaNibble ErrorCode = -3
	ErrFormatSimpleHuffmanAlpha  ErrorCode = -4
	ErrFormatSimpleHuffmanSame   ErrorCode = -5
	ErrFormatClSpace             ErrorCode = -6
	ErrFormatHuffmanSpace        ErrorCode = -7
	ErrFormatContextMapRepeat    ErrorCode = -8
	ErrFormatBlockLength1        ErrorCode = -9
	ErrFormatBlockLength2        ErrorCode = -10
	ErrFormatTransform           ErrorCode = -11
	ErrFormatDictionary          ErrorCode = -12
	ErrFormatWindowBits          ErrorCode = -13
	ErrFormatPadding1            ErrorCode = -14
	ErrFormatPadding2            ErrorCode = -15
	ErrFormatDistance            ErrorCode = -16
	ErrDictionaryNotSet          ErrorCode = -19
	ErrInvalidArguments          ErrorCode = -20
	ErrUnreachable               ErrorCode = -31
)

var errorNames = map[ErrorCode]string{
	codeNoError:                  "NO_ERROR",
	codeSuccess:                  "SUCCESS",
	codeNeedsMoreInput:           "NEEDS_MORE_INPUT",
	codeNeedsMoreOutput:          "NEEDS_MORE_OUTPUT",
	ErrFormatExuberantNibble:     "EXUBERANT_NIBBLE",
	ErrFormatReserved:            "RESERVED",
	ErrFormatExuberantMetaNibble: "EXUBERANT_META_NIBBLE",
	ErrFormatSimpleHuffmanAlpha:  "SIMPLE_HUFFMAN_ALPHABET",
	ErrFormatSimpleHuffmanSame:   "SIMPLE_HUFFMAN_SAME",
	ErrFormatClSpace:             "CL_SPACE",
	ErrFormatHuffmanSpace:        "HUFFMAN_SPACE",
	ErrFormatContextMapRepeat:    "CONTEXT_MAP_REPEAT",
	ErrFormatBlockLength1:        "BLOCK_LENGTH_1",
	ErrFormatBlockLength2:        "BLOCK_LENGTH_2",
	ErrFormatTransform:           "TRANSFORM",
	ErrFormatDictionary:          "DICTIONARY",
	ErrFormatWindowBits:          "WINDOW_BITS",
	ErrFormatPadding1:            "PADDING_1",
	ErrFormatPadding2:            "PADDING_2",
	ErrFormatDistance:            "DISTANCE",
	ErrDictionaryNotSet:          "DICTIONARY_NOT_SET",
	ErrInvalidArguments:          "INVALID_ARGUMENTS",
	ErrUnreachable:               "UNREACHABLE",
}

func (c ErrorCode) String() string {
	if name, ok := errorNames[c]; ok {
		if c < 0 {
			if c > ErrDictionaryNotSet {
				return "_ERROR_FORMAT_" + name
			}
			return "_ERROR_" + name
		}
		return name
	}
	return fmt.Sprintf("INVALID_CODE(%d)", int(c))
}

func (c ErrorCode) Error() string {
	return "brotli: " + c.String()
}

// IsFormatError reports whether c rejects the stream contents, as opposed to
// misuse of the decoder.
func (c ErrorCode) IsFormatError() bool {
	return c <= ErrFormatExuberantNibble && c >= ErrFormatDistance
}
