package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
)

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name  string
		fn    Normalizer
		input string
		want  string
	}{
		{"name suffix", NormalizeName, "  John  Smith Jr. ", "john smith"},
		{"name hyphen", NormalizeName, "Mary-Jane O'Neil", "mary jane oneil"},
		{"name unicode", NormalizeName, "JOSÉ", "josé"},
		{"digits", DigitsOnly, "100-2A3", "10023"},
		{"alphanumeric", Alphanumeric, "MRN: 42-x", "MRN42x"},
		{"whitespace", RemoveWhitespace, " a b\tc ", "abc"},
		{"punctuation", RemovePunctuation, "a.b,c!", "abc"},
		{"date only", NormalizeDate, "1984-07-02", "1984-07-02"},
		{"datetime", NormalizeDate, "1984-07-02 00:00:00", "1984-07-02"},
		{"rfc3339", NormalizeDate, "1984-07-02T10:00:00Z", "1984-07-02"},
		{"day first", NormalizeDate, "02/07/1984", "1984-07-02"},
		{"not a date", NormalizeDate, " unknown ", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.input))
		})
	}
}

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "ab12", ApplyChain(" A-B 12 ", "lowercase", "alphanumeric"))
	assert.Equal(t, " x ", ApplyChain(" x ", "no_such_normalizer"))
	assert.Equal(t, "x", ApplyChain("x"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]string{"name", "date"}))
	assert.NoError(t, Validate(nil))

	err := Validate([]string{"trim", "soundex"})
	assert.True(t, clerrors.Is(err, clerrors.ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), `"soundex"`)
}

func TestGet(t *testing.T) {
	fn, ok := Get("trim")
	assert.True(t, ok)
	assert.Equal(t, "x", fn(" x "))

	_, ok = Get("nope")
	assert.False(t, ok)
	assert.Contains(t, Names(), "digits_only")
}
