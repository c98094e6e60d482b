package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// Common Latin diacritics folded to ASCII.
	folder = strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
		"ç", "c", "è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i", "ı", "i",
		"ñ", "n", "ò", "o", "ó", "o", "ô", "o", "ö", "o", "õ", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u", "ş", "s", "ğ", "g",
		"ß", "ss",
	)
)

// Generate turns name into a lowercase, hyphen-separated ASCII slug.
//
//	"Try Karo Uploads" → "try-karo-uploads"
//	"Café  Menü!"      → "cafe-menu"
func Generate(name string) string {
	s := folder.Replace(strings.ToLower(strings.TrimSpace(name)))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}

// Path slugs each "/"-separated segment of p and drops empty ones, so
// "Brands / Acme Co//logos" becomes "brands/acme-co/logos". Path traversal
// segments reduce to nothing and are removed.
func Path(p string) string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if s := Generate(seg); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
