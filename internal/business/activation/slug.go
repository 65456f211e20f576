package activation

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// arabicToLatin is a simple one-way letter mapping; it is not a reversible
// romanisation, it only has to be stable.
var arabicToLatin = map[rune]string{
	'ا': "a", 'أ': "a", 'إ': "i", 'آ': "a", 'ء': "", 'ئ': "y", 'ؤ': "w",
	'ب': "b", 'ت': "t", 'ث': "th", 'ج': "j", 'ح': "h", 'خ': "kh",
	'د': "d", 'ذ': "dh", 'ر': "r", 'ز': "z", 'س': "s", 'ش': "sh",
	'ص': "s", 'ض': "d", 'ط': "t", 'ظ': "z", 'ع': "a", 'غ': "gh",
	'ف': "f", 'ق': "q", 'ك': "k", 'ل': "l", 'م': "m", 'ن': "n",
	'ه': "h", 'ة': "h", 'و': "w", 'ي': "y", 'ى': "a",
	'٠': "0", '١': "1", '٢': "2", '٣': "3", '٤': "4",
	'٥': "5", '٦': "6", '٧': "7", '٨': "8", '٩': "9",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases name, transliterates Arabic letters, drops diacritics and
// collapses everything outside [a-z0-9] into single hyphens. The result may be
// empty for names written entirely in unsupported scripts.
func Slugify(name string) string {
	stripped, _, err := transform.String(stripMarks, strings.ToLower(name))
	if err != nil {
		stripped = strings.ToLower(name)
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if latin, ok := arabicToLatin[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}

	slug := nonSlugChars.ReplaceAllString(b.String(), "-")
	return strings.Trim(slug, "-")
}
