// Package evidence pulls typed signals out of loosely-typed provider
// payloads: assessor attributes, geocodes, and permit records. Payloads come
// in several historical shapes, so every field is read through an ordered
// list of fallback paths and the first non-null match wins.
package evidence

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText lower-cases s, strips diacritics, and collapses whitespace so
// pattern matching sees "Instalación  A/C" as "instalacion a/c".
func foldText(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
