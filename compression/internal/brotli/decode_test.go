package brotli

import (
	"strings"
	"testing"

	"github.com/inovacc/brdecode/compression/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyStream() []byte {
	return []byte{0x06}
}

func uncompressedStream(data string) []byte {
	w := &bitWriter{}
	w.write(0, 1)
	w.write(0, 1).write(0, 2).write(uint64(len(data)-1), 16).write(1, 1)
	w.raw([]byte(data))
	return w.write(1, 1).write(1, 1).bytes()
}

// insertOnlyStream holds one command inserting "ab".
func insertOnlyStream() []byte {
	w := &bitWriter{}
	w.write(0, 1).lastCompressedHeader(2)
	w.simpleCode(8, 'a', 'b').simpleCode(10, 16).simpleCode(6, 0)
	return w.write(0, 1).write(1, 1).bytes()
}

// overlapStream inserts "ab" and copies 10 bytes from distance 2.
func overlapStream() []byte {
	w := &bitWriter{}
	w.write(0, 1).lastCompressedHeader(12)
	w.simpleCode(8, 'a', 'b').simpleCode(10, 208).simpleCode(6, 16)
	w.write(0, 1)
	w.write(0, 1).write(1, 1)
	return w.write(1, 1).bytes()
}

// wrapStream uses a 1 KiB window and copies past its end.
func wrapStream() []byte {
	w := &bitWriter{}
	w.write(1, 1).write(0, 3).write(2, 3)
	w.lastCompressedHeader(1096)
	w.simpleCode(8, 'a', 'b').simpleCode(10, 406).simpleCode(6, 16)
	w.write(0, 10)
	w.write(0, 1).write(1, 1)
	return w.write(1, 1).bytes()
}

func TestDecompressEmptyStream(t *testing.T) {
	d := NewDecoder(nil)
	consumed, produced, res := d.Decompress(emptyStream(), make([]byte, 16))

	assert.Equal(t, ResultSuccess, res)
	assert.Equal(t, 1, consumed)
	assert.Equal(t, 0, produced)
	assert.True(t, d.IsFinished())

	consumed, produced, res = d.Decompress([]byte{0xFF}, make([]byte, 16))
	assert.Equal(t, ResultSuccess, res)
	assert.Zero(t, consumed)
	assert.Zero(t, produced)
}

func TestDecompressHandBuilt(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "uncompressed", in: uncompressedStream("hello"), want: "hello"},
		{name: "insert only", in: insertOnlyStream(), want: "ab"},
		{name: "overlapping copy", in: overlapStream(), want: "abababababab"},
		{name: "ring wrap", in: wrapStream(), want: strings.Repeat("ab", 548)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, res := decodeAll(t, NewDecoder(nil), tt.in)
			require.Equal(t, ResultSuccess, res)
			assert.Equal(t, tt.want, string(got))
		})

		t.Run(tt.name+" byte by byte", func(t *testing.T) {
			d := NewDecoder(nil)
			got, res := decodeChunked(t, d, tt.in, 1, 1)
			require.Equal(t, ResultSuccess, res)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, len(tt.want), d.TotalOut())
		})
	}
}

func TestDecompressRingWrapKeepsSmallWindow(t *testing.T) {
	d := NewDecoder(nil)
	_, res := decodeAll(t, d, wrapStream())
	require.Equal(t, ResultSuccess, res)
	assert.Equal(t, 1024, d.ringbufferSize)
	assert.Equal(t, 1, d.rbRoundtrips)
}

func TestDecompressShrinksLastRingBuffer(t *testing.T) {
	d := NewDecoder(nil)
	_, res := decodeAll(t, d, uncompressedStream("hello"))
	require.Equal(t, ResultSuccess, res)
	assert.Equal(t, 32, d.ringbufferSize)
}

func TestDecompressMetadata(t *testing.T) {
	w := &bitWriter{}
	w.write(0, 1)
	w.write(0, 1).write(3, 2).write(0, 1).write(1, 2).write(2, 8)
	w.raw([]byte("xyz"))
	in := w.write(1, 1).write(1, 1).bytes()

	got, res := decodeAll(t, NewDecoder(nil), in)
	require.Equal(t, ResultSuccess, res)
	assert.Empty(t, got)
}

func TestDecompressFormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *bitWriter)
		want  ErrorCode
	}{
		{
			name: "exuberant nibble",
			build: func(w *bitWriter) {
				w.write(0, 1).write(0, 1).write(1, 2).write(0, 20)
			},
			want: ErrFormatExuberantNibble,
		},
		{
			name: "reserved metadata bit",
			build: func(w *bitWriter) {
				w.write(0, 1).write(0, 1).write(3, 2).write(1, 1)
			},
			want: ErrFormatReserved,
		},
		{
			name: "exuberant metadata length",
			build: func(w *bitWriter) {
				w.write(0, 1).write(0, 1).write(3, 2).write(0, 1).write(2, 2).write(5, 8).write(0, 8)
			},
			want: ErrFormatExuberantMetaNibble,
		},
		{
			name: "non zero padding",
			build: func(w *bitWriter) {
				w.write(0, 1).write(0, 1).write(0, 2).write(4, 16).write(1, 1)
				w.write(1, 3)
				w.raw([]byte("hello"))
			},
			want: ErrFormatPadding1,
		},
		{
			name: "simple code symbol out of range",
			build: func(w *bitWriter) {
				w.write(0, 1).lastCompressedHeader(2)
				w.simpleCode(8, 'a').simpleCode(10, 800)
			},
			want: ErrFormatSimpleHuffmanAlpha,
		},
		{
			name: "simple code repeats a symbol",
			build: func(w *bitWriter) {
				w.write(0, 1).lastCompressedHeader(2)
				w.simpleCode(8, 'a', 'a')
			},
			want: ErrFormatSimpleHuffmanSame,
		},
		{
			name: "distance below one",
			build: func(w *bitWriter) {
				w.write(0, 1).lastCompressedHeader(5)
				w.simpleCode(8, 'a').simpleCode(10, 128, 136).simpleCode(6, 6, 16)
				w.writeCode("1").writeCode("1").write(0, 1)
				w.writeCode("0").writeCode("0")
			},
			want: ErrFormatDistance,
		},
		{
			name: "copy past the meta-block",
			build: func(w *bitWriter) {
				w.write(0, 1).lastCompressedHeader(2)
				w.simpleCode(8, 'a').simpleCode(10, 136).simpleCode(6, 16)
				w.write(0, 1)
			},
			want: ErrFormatBlockLength2,
		},
		{
			name: "large window not enabled",
			build: func(w *bitWriter) {
				w.write(1, 1).write(0, 3).write(1, 3).write(0, 1).write(24, 6)
			},
			want: ErrFormatWindowBits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &bitWriter{}
			tt.build(w)
			in := append(w.bytes(), make([]byte, 8)...)

			d := NewDecoder(nil)
			_, res := decodeAll(t, d, in)
			require.Equal(t, ResultError, res)
			assert.Equal(t, tt.want, d.ErrorCode())
			assert.True(t, tt.want.IsFormatError())

			consumed, produced, res := d.Decompress(in, make([]byte, 16))
			assert.Equal(t, ResultError, res, "failure must be sticky")
			assert.Zero(t, consumed)
			assert.Zero(t, produced)
		})
	}
}

func TestDecompressTruncated(t *testing.T) {
	in := overlapStream()
	d := NewDecoder(nil)

	got, res := decodeAll(t, d, in[:len(in)-1])
	assert.Equal(t, ResultNeedsMoreInput, res)
	assert.False(t, d.IsFinished())

	out := make([]byte, 64)
	consumed, produced, res := d.Decompress(in[len(in)-1:], out)
	require.Equal(t, ResultSuccess, res)
	assert.Equal(t, 1, consumed)
	assert.Equal(t, "abababababab", string(got)+string(out[:produced]))
}

func TestDecompressNeedsMoreOutput(t *testing.T) {
	d := NewDecoder(nil)
	in := uncompressedStream("hello")

	consumed, produced, res := d.Decompress(in, make([]byte, 2))
	require.Equal(t, ResultNeedsMoreOutput, res)
	assert.Equal(t, 2, produced)
	assert.True(t, d.HasMoreOutput())

	out := make([]byte, 16)
	_, produced, res = d.Decompress(in[consumed:], out)
	require.Equal(t, ResultSuccess, res)
	assert.Equal(t, "llo", string(out[:produced]))
	assert.Equal(t, 5, d.TotalOut())
}

// Calls with no new input between suspensions must not change the outcome.
func TestDecompressSuspensionIsIdempotent(t *testing.T) {
	in := wrapStream()
	want := strings.Repeat("ab", 548)

	for split := 0; split <= len(in); split++ {
		d := NewDecoder(nil)
		out := make([]byte, 4096)

		consumed, produced, res := d.Decompress(in[:split], out)
		got := append([]byte(nil), out[:produced]...)
		if split < len(in) {
			require.Equal(t, ResultNeedsMoreInput, res, "split %d", split)
			require.Equal(t, split, consumed, "split %d", split)
		}

		for range 3 {
			c, p, r := d.Decompress(nil, out)
			require.Zero(t, c, "split %d", split)
			require.Zero(t, p, "split %d", split)
			require.Equal(t, res, r, "split %d", split)
		}

		if res != ResultSuccess {
			_, produced, res = d.Decompress(in[split:], out)
			got = append(got, out[:produced]...)
		}

		require.Equal(t, ResultSuccess, res, "split %d", split)
		require.Equal(t, want, string(got), "split %d", split)
	}
}

func TestDecompressDictionaryWords(t *testing.T) {
	sizeBits := make([]uint8, dictionary.MaxWordLength+1)
	sizeBits[4] = 1
	dict, err := dictionary.New([]byte("timehome"), sizeBits)
	require.NoError(t, err)

	stream := func(mlen, command, distance int, extra uint64, extraBits uint) []byte {
		w := &bitWriter{}
		w.write(0, 1).lastCompressedHeader(mlen)
		w.simpleCode(8, 0).simpleCode(10, command).simpleCode(6, distance)
		return w.write(extra, extraBits).bytes()
	}

	tests := []struct {
		name    string
		in      []byte
		opts    []OptsFn
		want    string
		wantErr ErrorCode
	}{
		{
			name: "first word",
			in:   stream(4, 130, 16, 0, 1),
			opts: []OptsFn{WithDictionary(dict)},
			want: "time",
		},
		{
			name: "second word",
			in:   stream(4, 130, 16, 1, 1),
			opts: []OptsFn{WithDictionary(dict)},
			want: "home",
		},
		{
			name: "transformed word",
			in:   stream(5, 130, 17, 0, 1),
			opts: []OptsFn{WithDictionary(dict)},
			want: "time ",
		},
		{
			name: "transform out of range",
			in:   stream(5, 130, 17, 0, 1),
			opts: []OptsFn{
				WithDictionary(dict),
				WithTransforms(dictionary.NewTransforms([]dictionary.Transform{{Type: dictionary.Identity}})),
			},
			wantErr: ErrFormatTransform,
		},
		{
			name:    "no words of that length",
			in:      stream(5, 131, 16, 0, 1),
			opts:    []OptsFn{WithDictionary(dict)},
			wantErr: ErrFormatDictionary,
		},
		{
			name:    "dictionary not set",
			in:      stream(4, 130, 16, 0, 1),
			wantErr: ErrDictionaryNotSet,
		},
		{
			name: "custom dictionary",
			in:   stream(5, 131, 18, 0, 2),
			opts: []OptsFn{WithCustomDictionary([]byte("hello"))},
			want: "hello",
		},
		{
			name:    "distance past the custom dictionary",
			in:      stream(5, 131, 18, 1, 2),
			opts:    []OptsFn{WithCustomDictionary([]byte("hello"))},
			wantErr: ErrDictionaryNotSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(NewConfig(tt.opts...))
			got, res := decodeAll(t, d, tt.in)

			if tt.wantErr != 0 {
				require.Equal(t, ResultError, res)
				assert.Equal(t, tt.wantErr, d.ErrorCode())
				return
			}

			require.Equal(t, ResultSuccess, res, d.ErrorCode().String())
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDecompressLargeWindow(t *testing.T) {
	stream := func(windowBits uint64, distance int) []byte {
		w := &bitWriter{}
		w.write(1, 1).write(0, 3).write(1, 3).write(0, 1).write(windowBits, 6)
		w.lastCompressedHeader(2)
		w.simpleCode(8, 'a', 'b').simpleCode(10, 16).simpleCode(8, distance)
		return w.write(0, 1).write(1, 1).bytes()
	}

	tests := []struct {
		name    string
		in      []byte
		wantErr ErrorCode
	}{
		{name: "window 25", in: stream(25, 0)},
		{name: "window 30", in: stream(30, 0)},
		{name: "window 10", in: stream(10, 0)},
		{name: "window 31", in: stream(31, 0), wantErr: ErrFormatWindowBits},
		{name: "window 9", in: stream(9, 0), wantErr: ErrFormatWindowBits},
		{name: "distance symbol past the cap", in: stream(25, 100), wantErr: ErrFormatSimpleHuffmanAlpha},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(NewConfig(WithLargeWindow(true)))
			got, res := decodeAll(t, d, tt.in)

			if tt.wantErr != 0 {
				require.Equal(t, ResultError, res)
				assert.Equal(t, tt.wantErr, d.ErrorCode())
				return
			}

			require.Equal(t, ResultSuccess, res, d.ErrorCode().String())
			assert.Equal(t, "ab", string(got))
			assert.True(t, d.largeWindow)
		})
	}

	d := NewDecoder(nil)
	_, res := decodeAll(t, d, stream(25, 0))
	require.Equal(t, ResultError, res)
	assert.Equal(t, ErrFormatWindowBits, d.ErrorCode())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "needs more input", ResultNeedsMoreInput.String())
	assert.Equal(t, "invalid", Result(42).String())
	assert.Equal(t, "_ERROR_FORMAT_DISTANCE", ErrFormatDistance.String())
	assert.Equal(t, "_ERROR_DICTIONARY_NOT_SET", ErrDictionaryNotSet.String())
	assert.Equal(t, "brotli: _ERROR_FORMAT_PADDING_1", ErrFormatPadding1.Error())
	assert.False(t, ErrDictionaryNotSet.IsFormatError())
}
