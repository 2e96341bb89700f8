/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package file

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters without a decomposition that still have an ASCII rendering
var specialLetters = strings.NewReplacer(
	"ß", "s",
	"@", "a",
	"°", "o",
	"º", "o",
	"ª", "a",
)

var unsafeCharacters = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeIdentifier turns a flattened identifier into a file name fragment:
// accented letters lose their accents, characters that are not URL-safe are
// dropped and anything outside [a-zA-Z0-9._-] becomes "_".
func SanitizeIdentifier(identifier string) string {
	identifier = specialLetters.Replace(identifier)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, identifier); err == nil {
		identifier = stripped
	}

	identifier = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !urlCharacter(r) {
			return -1
		}
		return r
	}, identifier)

	return unsafeCharacters.ReplaceAllString(identifier, "_")
}

func urlCharacter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("$-_.+!*'(),{}|\\^~[]`<>#%\";/?:@&=", r)
}
