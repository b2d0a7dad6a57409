// Package textnorm folds free text from bank exports and invoices into
// comparable forms and extracts CBI payment-reference codes.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// \s is ASCII only; \p{Zs} adds no-break and other Unicode spaces.
	whitespaceRegex = regexp.MustCompile(`[\s\p{Zs}]+`)
	separatorRegex  = regexp.MustCompile(`[_-]`)

	cbiPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:causale[\s\p{Zs}]*cbi|codice[\s\p{Zs}]*cbi|cbi)[\s\p{Zs}]*[:-]?[\s\p{Zs}]*([A-Za-z0-9]{2,20})`),
		regexp.MustCompile(`(?i)\bcbi[:\s\p{Zs}-]+([A-Za-z0-9]{2,20})`),
	}
)

// Compact trims s and collapses internal whitespace runs to one space.
func Compact(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// StripAccents removes combining marks after NFD decomposition, so "è"
// becomes "e".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold compacts, lowercases and strips accents.
func Fold(s string) string {
	return StripAccents(strings.ToLower(Compact(s)))
}

// Label folds a header or hint label: accents stripped, lowercase, "_"
// and "-" treated as spaces, whitespace collapsed.
func Label(s string) string {
	s = StripAccents(s)
	s = strings.ToLower(s)
	s = separatorRegex.ReplaceAllString(s, " ")
	return Compact(s)
}

// Alnum folds s and drops everything that is not a-z or 0-9.
func Alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, Fold(s))
}

// NormalizeCBI uppercases s and strips non-alphanumerics. Codes shorter
// than two characters are rejected with "".
func NormalizeCBI(s string) string {
	code := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.ToUpper(Compact(s)))
	if len(code) < 2 {
		return ""
	}
	return code
}

// ExtractCBI finds a labeled code such as "CBI: 48" or "causale cbi RF18"
// in free text and returns it normalized, or "".
func ExtractCBI(text string) string {
	text = Compact(text)
	if text == "" {
		return ""
	}
	for _, p := range cbiPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if code := NormalizeCBI(m[1]); code != "" {
			return code
		}
	}
	return ""
}
