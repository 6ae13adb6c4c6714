package comparator

import (
	"strings"
	"unicode"
)

// JaroWinkler returns the Jaro-Winkler similarity of a and b in [0, 1]
func JaroWinkler(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	jaro := jaroRunes(ra, rb)

	prefix := 0
	for prefix < len(ra) && prefix < len(rb) && prefix < 4 && ra[prefix] == rb[prefix] {
		prefix++
	}
	return jaro + float64(prefix)*0.1*(1-jaro)
}

// Jaro returns the Jaro similarity of a and b in [0, 1]
func Jaro(a, b string) float64 {
	return jaroRunes([]rune(a), []rune(b))
}

func jaroRunes(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := max(len(a), len(b))/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, len(a))
	bMatched := make([]bool, len(b))
	matches := 0
	for i := range a {
		lo, hi := max(0, i-window), min(len(b), i+window+1)
		for j := lo; j < hi; j++ {
			if !bMatched[j] && a[i] == b[j] {
				aMatched[i], bMatched[j] = true, true
				matches++
				break
			}
		}
	}
	if matches == 0 {
		return 0
	}

	half := 0
	k := 0
	for i := range a {
		if !aMatched[i] {
			continue
		}
		for !bMatched[k] {
			k++
		}
		if a[i] != b[k] {
			half++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(half)/2)/m) / 3
}

// LevenshteinDistance returns the edit distance between a and b
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			sub := prev[j-1]
			if ra[i-1] != rb[j-1] {
				sub++
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Levenshtein returns the edit distance of a and b normalised to a similarity in [0, 1]
func Levenshtein(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(LevenshteinDistance(a, b))/float64(longest)
}

// Soundex returns the four character American Soundex code of s, or "" when s has no letters
func Soundex(s string) string {
	var letters []rune
	for _, r := range strings.ToUpper(s) {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	code := []byte{byte(letters[0])}
	last := soundexDigit(letters[0])
	for _, r := range letters[1:] {
		if len(code) == 4 {
			break
		}
		d := soundexDigit(r)
		switch {
		case d == 0:
			// H and W do not separate letters with the same code
			if r != 'H' && r != 'W' {
				last = 0
			}
		case d != last:
			code = append(code, d)
			last = d
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

func soundexDigit(r rune) byte {
	switch r {
	case 'B', 'F', 'P', 'V':
		return '1'
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return '2'
	case 'D', 'T':
		return '3'
	case 'L':
		return '4'
	case 'M', 'N':
		return '5'
	case 'R':
		return '6'
	}
	return 0
}
