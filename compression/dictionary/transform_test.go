package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardTransformsTable(t *testing.T) {
	tr := StandardTransforms()
	assert.Equal(t, 121, tr.Len())
	assert.Equal(t, Transform{"", Identity, ""}, tr.At(0))
	assert.Equal(t, Transform{" ", UppercaseFirst, "='"}, tr.At(120))

	for i := 0; i < tr.Len(); i++ {
		x := tr.At(i)
		assert.LessOrEqual(t, len(x.Prefix)+MaxWordLength+len(x.Suffix), MaxTransformedLength, "transform %d", i)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		word string
		idx  int
		want string
	}{
		{"identity", "time", 0, "time"},
		{"suffix", "time", 1, "time "},
		{"both", "time", 2, " time "},
		{"omit first 1", "time", 3, "ime"},
		{"uppercase first", "time", 9, "Time"},
		{"omit last 1", "time", 12, "tim"},
		{"omit last 3 with suffix", "timeless", 23, "timel"},
		{"omit last 1 ing", "make", 49, "making "},
		{"uppercase all", "time", 44, "TIME"},
		{"omit first 9 overflow", "time", 54, ""},
		{"nbsp prefix", "time", 102, "\xc2\xa0time"},
		{"uppercase all multi-byte", "\xc3\xa9t\xc3\xa9", 44, "\xc3\x89T\xc3\x89"},
	}

	tr := StandardTransforms()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, MaxTransformedLength)
			n := tr.Apply(dst, []byte(tt.word), tt.idx)
			assert.Equal(t, tt.want, string(dst[:n]))
		})
	}
}

func TestApplyDoesNotMutateWord(t *testing.T) {
	word := []byte("time")
	dst := make([]byte, MaxTransformedLength)
	StandardTransforms().Apply(dst, word, 44)
	assert.Equal(t, "time", string(word))
}
