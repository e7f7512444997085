package brotli

import (
	"io"

	"github.com/inovacc/brdecode/compression/dictionary"
	"github.com/sirupsen/logrus"
)

/* Copyright 2015 Google Inc. All Rights Reserved.

   Distributed under MIT license.
   See file LICENSE for detail or copy at https://opensource.org/licenses/MIT
*/

/* Brotli state for partial streaming decoding. */
const (
	stateUninited = iota
	stateLargeWindowBits
	stateInitialize
	stateMetablockBegin
	stateMetablockHeader
	stateMetablockHeader2
	stateContextModes
	stateCommandBegin
	stateCommandInner
	stateCommandPostDecodeLiterals
	stateCommandPostWrapCopy
	stateUncompressed
	stateMetadata
	stateCommandInnerWrite
	stateMetablockDone
	stateCommandPostWrite1
	stateCommandPostWrite2
	stateHuffmanCode0
	stateHuffmanCode1
	stateHuffmanCode2
	stateHuffmanCode3
	stateContextMap1
	stateContextMap2
	stateTreeGroup
	stateDone
)

const (
	stateMetablockHeaderNone = iota
	stateMetablockHeaderEmpty
	stateMetablockHeaderNibbles
	stateMetablockHeaderSize
	stateMetablockHeaderUncompressed
	stateMetablockHeaderReserved
	stateMetablockHeaderBytes
	stateMetablockHeaderMetadata
)

const (
	stateUncompressedNone = iota
	stateUncompressedWrite
)

const (
	stateTreeGroupNone = iota
	stateTreeGroupLoop
)

const (
	stateContextMapNone = iota
	stateContextMapReadPrefix
	stateContextMapHuffman
	stateContextMapDecode
	stateContextMapTransform
)

const (
	stateHuffmanNone = iota
	stateHuffmanSimpleSize
	stateHuffmanSimpleRead
	stateHuffmanSimpleBuild
	stateHuffmanComplex
	stateHuffmanLengthSymbols
)

const (
	stateDecodeUint8None = iota
	stateDecodeUint8Short
	stateDecodeUint8Long
)

const (
	stateReadBlockLengthNone = iota
	stateReadBlockLengthSuffix
)

// huffmanTreeGroup is the set of prefix codes of one alphabet in a meta-block.
type huffmanTreeGroup struct {
	htrees            [][]huffmanCode
	alphabetSizeMax   uint32
	alphabetSizeLimit uint32
}

func (g *huffmanTreeGroup) init(alphabetSizeMax, alphabetSizeLimit, ntrees uint32) {
	g.alphabetSizeMax = alphabetSizeMax
	g.alphabetSizeLimit = alphabetSizeLimit
	g.htrees = make([][]huffmanCode, ntrees)
}

// Config carries the decoder collaborators and switches.
type Config struct {
	dictionary  *dictionary.Dictionary
	transforms  *dictionary.Transforms
	customDict  []byte
	largeWindow bool
	logger      logrus.FieldLogger
}

type OptsFn func(*Config)

// NewConfig returns a config with the standard transforms, no static
// dictionary and a silent logger.
func NewConfig(o ...OptsFn) *Config {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	cfg := &Config{
		transforms: dictionary.StandardTransforms(),
		logger:     quiet,
	}

	for _, fn := range o {
		fn(cfg)
	}
	return cfg
}

// WithDictionary sets the static dictionary used for references beyond the
// window.
func WithDictionary(d *dictionary.Dictionary) OptsFn {
	return func(c *Config) {
		c.dictionary = d
	}
}

func WithTransforms(t *dictionary.Transforms) OptsFn {
	return func(c *Config) {
		if t != nil {
			c.transforms = t
		}
	}
}

// WithCustomDictionary prefills the window with data, as if it had been
// decoded just before the stream.
func WithCustomDictionary(data []byte) OptsFn {
	return func(c *Config) {
		c.customDict = data
	}
}

// WithLargeWindow accepts streams that use the large window extension
// (window bits 10 to 30).
func WithLargeWindow(enabled bool) OptsFn {
	return func(c *Config) {
		c.largeWindow = enabled
	}
}

func WithLogger(l logrus.FieldLogger) OptsFn {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Decoder holds every piece of state needed to suspend and resume decoding
// at any input or output boundary. Fields used by a sub-state machine are
// only meaningful while that machine is active.
type Decoder struct {
	cfg *Config
	log logrus.FieldLogger

	state       int
	loopCounter int
	br          bitReader
	entropy     symbolDecoder

	buffer       [8]byte
	bufferLength int

	pos                 int
	maxBackwardDistance int
	maxDistance         int
	ringbufferSize      int
	ringbufferMask      int
	ringbuffer          []byte
	rbRoundtrips        int
	partialPosOut       int

	distRbIdx          int
	distRb             [4]int
	distRbCompensation int
	distanceCode       int
	copyLength         int
	errorCode          ErrorCode

	htreeCommand        []huffmanCode
	contextLookup       contextLUT
	contextMapSlice     []byte
	distContextMapSlice []byte

	literalHgroup    huffmanTreeGroup
	insertCopyHgroup huffmanTreeGroup
	distanceHgroup   huffmanTreeGroup

	blockTypeTrees [3][]huffmanCode
	blockLenTrees  [3][]huffmanCode

	trivialLiteralContext  bool
	trivialLiteralContexts [8]uint32
	literalHtree           []huffmanCode
	distanceContext        int
	distHtreeIndex         byte

	metaBlockRemainingLen int
	blockLengthIndex      uint32
	blockLength           [3]uint32
	numBlockTypes         [3]uint32
	blockTypeRb           [6]uint32

	distancePostfixBits    uint32
	numDirectDistanceCodes uint32
	distancePostfixMask    uint32

	numLiteralHtrees uint32
	numDistHtrees    uint32
	contextMap       []byte
	distContextMap   []byte
	contextModes     []byte

	// Prefix code reading.
	symbol                uint32
	repeat                uint32
	space                 uint32
	prevCodeLen           uint32
	repeatCodeLen         uint32
	subLoopCounter        uint32
	htreeIndex            int
	symbolsList           [4]uint16
	codeLengthTable       []huffmanCode
	codeLengthHisto       lengthHistogram
	codeLengthCodeLengths [codeLengthCodes]uint8
	codeLengths           [maxCodeLengthSymbols]uint8
	sortedSymbols         [maxCodeLengthSymbols]uint16

	// Context map reading.
	contextIndex       uint32
	maxRunLengthPrefix uint32
	code               uint32
	contextMapTable    []huffmanCode
	mtf                [256]byte

	substateMetablockHeader int
	substateTreeGroup       int
	substateContextMap      int
	substateUncompressed    int
	substateHuffman         int
	substateDecodeUint8     int
	substateReadBlockLength int

	isLastMetablock bool
	isUncompressed  bool
	isMetadata      bool
	sizeNibbles     uint32
	windowBits      uint32
	// Before the stream header: whether large windows are accepted. After
	// it: whether the stream uses one.
	largeWindow bool

	customDict     []byte
	customDictSize int
	dictionary     *dictionary.Dictionary
	transforms     *dictionary.Transforms
}

// NewDecoder returns a decoder ready for a new stream. A nil cfg uses
// NewConfig().
func NewDecoder(cfg *Config) *Decoder {
	if cfg == nil {
		cfg = NewConfig()
	}

	s := &Decoder{cfg: cfg}
	s.init()
	return s
}

// Reset prepares the decoder for a new stream with the same configuration.
func (s *Decoder) Reset() {
	s.init()
}

func (s *Decoder) init() {
	cfg := s.cfg
	*s = Decoder{cfg: cfg}

	s.log = cfg.logger
	s.dictionary = cfg.dictionary
	s.transforms = cfg.transforms
	s.customDict = cfg.customDict
	s.customDictSize = len(cfg.customDict)
	s.largeWindow = cfg.largeWindow

	s.state = stateUninited
	s.br.init()
	s.entropy = &s.br
	s.distRb = [4]int{16, 15, 11, 4}
}

func (s *Decoder) metablockBegin() {
	s.metaBlockRemainingLen = 0
	s.blockLength = [3]uint32{1 << 24, 1 << 24, 1 << 24}
	s.numBlockTypes = [3]uint32{1, 1, 1}
	s.blockTypeRb = [6]uint32{1, 0, 1, 0, 1, 0}
	s.blockTypeTrees = [3][]huffmanCode{}
	s.blockLenTrees = [3][]huffmanCode{}
	s.contextMap = nil
	s.contextModes = nil
	s.distContextMap = nil
	s.contextMapSlice = nil
	s.literalHtree = nil
	s.distContextMapSlice = nil
	s.distHtreeIndex = 0
	s.contextLookup = nil
	s.literalHgroup = huffmanTreeGroup{}
	s.insertCopyHgroup = huffmanTreeGroup{}
	s.distanceHgroup = huffmanTreeGroup{}
	s.htreeCommand = nil
}

// metablockCleanup drops the tables of a finished meta-block.
func (s *Decoder) metablockCleanup() {
	s.contextModes = nil
	s.contextMap = nil
	s.distContextMap = nil
	s.literalHgroup = huffmanTreeGroup{}
	s.insertCopyHgroup = huffmanTreeGroup{}
	s.distanceHgroup = huffmanTreeGroup{}
	s.codeLengthTable = nil
	s.contextMapTable = nil
}
