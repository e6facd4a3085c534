package entity

import (
	"strings"
	"unicode"
)

// foldedRunes maps accented Latin runes onto their ASCII base so that
// "São Paulo" and "Sao Paulo" normalize identically. Covers the Latin-1 and
// Latin Extended-A ranges the provider actually uses in names.
var foldedRunes = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a", 'ā': "a", 'ă': "a", 'ą': "a",
	'ç': "c", 'ć': "c", 'č': "c",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e", 'ē': "e", 'ė': "e", 'ę': "e", 'ě': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i", 'ī': "i", 'ı': "i",
	'ð': "d", 'đ': "d", 'ď': "d",
	'ñ': "n", 'ń': "n", 'ň': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o", 'ō': "o", 'ő': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u", 'ū': "u", 'ů': "u", 'ű': "u",
	'ý': "y", 'ÿ': "y",
	'ś': "s", 'š': "s", 'ş': "s", 'ș': "s", 'ß': "ss",
	'ť': "t", 'ț': "t", 'þ': "th",
	'ź': "z", 'ż': "z", 'ž': "z",
	'ł': "l", 'ľ': "l",
	'ŕ': "r", 'ř': "r",
	'ğ': "g", 'ģ': "g",
	'æ': "ae", 'œ': "oe",
}

// NormalizeName produces the canonical lookup form of a free-text entity
// name: lower-cased, diacritics folded, punctuation dropped, whitespace
// collapsed. Cache keys and match scoring both operate on this form.
func NormalizeName(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(lowered))

	lastSpace := false
	for _, r := range lowered {
		if folded, ok := foldedRunes[r]; ok {
			b.WriteString(folded)
			lastSpace = false
			continue
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '.' || r == '\'':
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
