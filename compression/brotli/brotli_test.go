package brotli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	abrotli "github.com/andybalholm/brotli"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/brdecode/compression/dictionary"
)

// dictionaryStream is a single meta-block whose only command copies word 0
// of length 4 from the static dictionary.
var dictionaryStream = []byte{0x62, 0x00, 0x00, 0x00, 0x04, 0x40, 0x08, 0x12, 0x10}

func testDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()

	sizeBits := make([]uint8, dictionary.MaxWordLength+1)
	sizeBits[4] = 1
	d, err := dictionary.New([]byte("timehome"), sizeBits)
	require.NoError(t, err)
	return d
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := abrotli.NewWriterOptions(&buf, abrotli.WriterOptions{Quality: 1, LGWin: 18})
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func corpus(seed uint64, n int) []byte {
	f := gofakeit.New(seed)
	var sb strings.Builder
	for sb.Len() < n {
		sb.WriteString(f.Word())
		sb.WriteByte(' ')
	}
	return []byte(sb.String())
}

func TestDecompress(t *testing.T) {
	for _, n := range []int{0, 1, 1000, 300 << 10} {
		data := corpus(uint64(n), n)
		got, err := Decompress(compress(t, data))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got), "size %d", n)
	}
}

func TestDecompressErrors(t *testing.T) {
	in := compress(t, corpus(1, 4096))

	t.Run("truncated", func(t *testing.T) {
		_, err := Decompress(in[:len(in)/2])
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decompress(nil)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := Decompress(append(bytes.Clone(in), 'x'))
		assert.ErrorIs(t, err, ErrExcessiveInput)
	})

	t.Run("corrupt", func(t *testing.T) {
		// Large window escape without the option.
		_, err := Decompress([]byte{0x11, 0x18})
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.False(t, errors.Is(err, ErrDictionaryNotSet))

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "_ERROR_FORMAT_WINDOW_BITS", de.Code.String())
		assert.Zero(t, de.Offset)
	})
}

func TestDecompressDictionary(t *testing.T) {
	_, err := Decompress(dictionaryStream)
	assert.ErrorIs(t, err, ErrDictionaryNotSet)
	assert.False(t, errors.Is(err, ErrCorrupt))

	got, err := Decompress(dictionaryStream, WithDictionary(testDictionary(t)))
	require.NoError(t, err)
	assert.Equal(t, "time", string(got))
}

func TestDecompressFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := corpus(7, 10_000)
	require.NoError(t, afero.WriteFile(fs, "/in/data.txt.br", compress(t, data), 0o644))

	got, err := DecompressFile(fs, "/in/data.txt.br")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = DecompressFile(fs, "/in/missing.br")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/in/bad.br", []byte{0x11, 0x18}, 0o644))
	_, err = DecompressFile(fs, "/in/bad.br")
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "/in/bad.br")
}

func TestReader(t *testing.T) {
	data := corpus(3, 200<<10)
	r := NewReader(bytes.NewReader(compress(t, data)))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
	assert.Equal(t, len(data), r.TotalOut())

	r.Reset(bytes.NewReader(dictionaryStream))
	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, ErrDictionaryNotSet)
}

func TestCopy(t *testing.T) {
	data := corpus(4, 50_000)

	var out bytes.Buffer
	n, err := Copy(&out, bytes.NewReader(compress(t, data)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, out.Bytes())
}

func TestNewDecoderStreaming(t *testing.T) {
	data := corpus(5, 20_000)
	in := compress(t, data)

	d := NewDecoder()
	var got []byte
	out := make([]byte, 100)
	for len(in) > 0 || d.HasMoreOutput() {
		step := min(len(in), 10)
		consumed, produced, res := d.Decompress(in[:step], out)
		in = in[consumed:]
		got = append(got, out[:produced]...)
		if res == ResultSuccess {
			break
		}
		require.NotEqual(t, ResultError, res)
	}

	assert.True(t, d.IsFinished())
	assert.Equal(t, data, got)
}
