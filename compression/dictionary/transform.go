package dictionary

// TransformType selects the mutation applied to a dictionary word.
type TransformType uint8

const (
	Identity TransformType = iota
	OmitLast1
	OmitLast2
	OmitLast3
	OmitLast4
	OmitLast5
	OmitLast6
	OmitLast7
	OmitLast8
	OmitLast9
	UppercaseFirst
	UppercaseAll
	OmitFirst1
	OmitFirst2
	OmitFirst3
	OmitFirst4
	OmitFirst5
	OmitFirst6
	OmitFirst7
	OmitFirst8
	OmitFirst9
)

// MaxTransformedLength bounds the output of any standard transform: the longest
// prefix and suffix around the longest word.
const MaxTransformedLength = 5 + MaxWordLength + 8

// Transform is one (prefix, type, suffix) entry of a transform table.
type Transform struct {
	Prefix string
	Type   TransformType
	Suffix string
}

// Transforms is an ordered transform table.
type Transforms struct {
	list []Transform
}

// NewTransforms wraps a transform table.
func NewTransforms(list []Transform) *Transforms {
	return &Transforms{list: list}
}

// StandardTransforms returns the 121 transforms of RFC 7932 Appendix B.
func StandardTransforms() *Transforms {
	return standard
}

var standard = NewTransforms([]Transform{
	{"", Identity, ""},
	{"", Identity, " "},
	{" ", Identity, " "},
	{"", OmitFirst1, ""},
	{"", UppercaseFirst, " "},
	{"", Identity, " the "},
	{" ", Identity, ""},
	{"s ", Identity, " "},
	{"", Identity, " of "},
	{"", UppercaseFirst, ""},
	{"", Identity, " and "},
	{"", OmitFirst2, ""},
	{"", OmitLast1, ""},
	{", ", Identity, " "},
	{"", Identity, ", "},
	{" ", UppercaseFirst, " "},
	{"", Identity, " in "},
	{"", Identity, " to "},
	{"e ", Identity, " "},
	{"", Identity, "\""},
	{"", Identity, "."},
	{"", Identity, "\">"},
	{"", Identity, "\n"},
	{"", OmitLast3, ""},
	{"", Identity, "]"},
	{"", Identity, " for "},
	{"", OmitFirst3, ""},
	{"", OmitLast2, ""},
	{"", Identity, " a "},
	{"", Identity, " that "},
	{" ", UppercaseFirst, ""},
	{"", Identity, ". "},
	{".", Identity, ""},
	{" ", Identity, ", "},
	{"", OmitFirst4, ""},
	{"", Identity, " with "},
	{"", Identity, "'"},
	{"", Identity, " from "},
	{"", Identity, " by "},
	{"", OmitFirst5, ""},
	{"", OmitFirst6, ""},
	{" the ", Identity, ""},
	{"", OmitLast4, ""},
	{"", Identity, ". The "},
	{"", UppercaseAll, ""},
	{"", Identity, " on "},
	{"", Identity, " as "},
	{"", Identity, " is "},
	{"", OmitLast7, ""},
	{"", OmitLast1, "ing "},
	{"", Identity, "\n\t"},
	{"", Identity, ":"},
	{" ", Identity, ". "},
	{"", Identity, "ed "},
	{"", OmitFirst9, ""},
	{"", OmitFirst7, ""},
	{"", OmitLast6, ""},
	{"", Identity, "("},
	{"", UppercaseFirst, ", "},
	{"", OmitLast8, ""},
	{"", Identity, " at "},
	{"", Identity, "ly "},
	{" the ", Identity, " of "},
	{"", OmitLast5, ""},
	{"", OmitLast9, ""},
	{" ", UppercaseFirst, ", "},
	{"", UppercaseFirst, "\""},
	{".", Identity, "("},
	{"", UppercaseAll, " "},
	{"", UppercaseFirst, "\">"},
	{"", Identity, "=\""},
	{" ", Identity, "."},
	{".com/", Identity, ""},
	{" the ", Identity, " of the "},
	{"", UppercaseFirst, "'"},
	{"", Identity, ". This "},
	{"", Identity, ","},
	{".", Identity, " "},
	{"", UppercaseFirst, "("},
	{"", UppercaseFirst, "."},
	{"", Identity, " not "},
	{" ", Identity, "=\""},
	{"", Identity, "er "},
	{" ", UppercaseAll, " "},
	{"", Identity, "al "},
	{" ", UppercaseAll, ""},
	{"", Identity, "='"},
	{"", UppercaseAll, "\""},
	{"", UppercaseFirst, ". "},
	{" ", Identity, "("},
	{"", Identity, "ful "},
	{" ", UppercaseFirst, ". "},
	{"", Identity, "ive "},
	{"", Identity, "less "},
	{"", UppercaseAll, "'"},
	{"", Identity, "est "},
	{" ", UppercaseFirst, "."},
	{"", UppercaseAll, "\">"},
	{" ", Identity, "='"},
	{"", UppercaseFirst, ","},
	{"", Identity, "ize "},
	{"", UppercaseAll, "."},
	{"\xc2\xa0", Identity, ""},
	{" ", Identity, ","},
	{"", UppercaseFirst, "=\""},
	{"", UppercaseAll, "=\""},
	{"", Identity, "ous "},
	{"", UppercaseAll, ", "},
	{"", UppercaseFirst, "='"},
	{" ", UppercaseFirst, ","},
	{" ", UppercaseAll, "=\""},
	{" ", UppercaseAll, ", "},
	{"", UppercaseAll, ","},
	{"", UppercaseAll, "("},
	{"", UppercaseAll, ". "},
	{" ", UppercaseAll, "."},
	{"", UppercaseAll, "='"},
	{" ", UppercaseAll, ". "},
	{" ", UppercaseFirst, "=\""},
	{" ", UppercaseAll, "='"},
	{" ", UppercaseFirst, "='"},
})

// Len returns the number of transforms in the table.
func (t *Transforms) Len() int {
	return len(t.list)
}

// At returns the idx-th transform.
func (t *Transforms) At(idx int) Transform {
	return t.list[idx]
}

// Apply writes the transformed word into dst and returns the number of bytes
// written. dst must have room for len(prefix)+len(word)+len(suffix) bytes.
func (t *Transforms) Apply(dst, word []byte, idx int) int {
	tr := t.list[idx]
	n := copy(dst, tr.Prefix)

	switch {
	case tr.Type <= OmitLast9:
		cut := int(tr.Type - Identity)
		if cut > len(word) {
			cut = len(word)
		}
		word = word[:len(word)-cut]
	case tr.Type >= OmitFirst1 && tr.Type <= OmitFirst9:
		skip := int(tr.Type-OmitFirst1) + 1
		if skip > len(word) {
			skip = len(word)
		}
		word = word[skip:]
	}

	start := n
	n += copy(dst[n:], word)

	switch tr.Type {
	case UppercaseFirst:
		if len(word) > 0 {
			toUpperCase(dst[start:n])
		}
	case UppercaseAll:
		for p := dst[start:n]; len(p) > 0; {
			p = p[toUpperCase(p):]
		}
	}

	n += copy(dst[n:], tr.Suffix)
	return n
}

// toUpperCase upper-cases the first UTF-8 sequence of p in place, using the
// format's simplified rule, and returns its length.
func toUpperCase(p []byte) int {
	if p[0] < 0xC0 {
		if p[0] >= 'a' && p[0] <= 'z' {
			p[0] ^= 32
		}
		return 1
	}
	if p[0] < 0xE0 {
		if len(p) > 1 {
			p[1] ^= 32
		}
		return min(2, len(p))
	}
	if len(p) > 2 {
		p[2] ^= 5
	}
	return min(3, len(p))
}
