// Package normalizers cleans field values before they are compared
package normalizers

import (
	"sort"
	"strings"
	"time"
	"unicode"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("remove_whitespace", RemoveWhitespace)
	Register("remove_punctuation", RemovePunctuation)
	Register("name", NormalizeName)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
	Register("date", NormalizeDate)
}

// Register adds a normalizer to the registry. It is not safe to call concurrently with Apply.
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names returns the registered normalizer names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate fails with ErrInvalidConfiguration on the first unregistered name
func Validate(names []string) error {
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return clerrors.InvalidConfigurationf("unknown normalizer %q, expected one of %s", name, strings.Join(Names(), ", "))
		}
	}
	return nil
}

// ApplyChain applies normalizers in sequence. Unknown names are skipped.
func ApplyChain(value string, names ...string) string {
	for _, name := range names {
		if fn, ok := registry[name]; ok {
			value = fn(value)
		}
	}
	return value
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// RemoveWhitespace removes all whitespace characters
func RemoveWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
}

var nameSuffixes = []string{" jr.", " jr", " sr.", " sr", " iii", " ii", " iv"}

// NormalizeName lowercases a person name, drops a trailing generational suffix and
// punctuation, and collapses runs of whitespace.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = s[:len(s)-len(suffix)]
			break
		}
	}

	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-':
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02 15:04:05.0",
	"02/01/2006",
	"2006/01/02",
}

// NormalizeDate rewrites a date or timestamp as YYYY-MM-DD. Values in no known layout
// are returned trimmed but otherwise unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return s
}
