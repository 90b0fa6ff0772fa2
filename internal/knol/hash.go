// Package knol derives stable identities for card text.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// Normalize concatenates the card's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(content domain.CardContent) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	f := normalizePart(content.Front)
	b := normalizePart(content.Back)
	c := normalizePart(content.Context)

	// Fields are newline separated so "ab"+"c" and "a"+"bc" hash differently.
	return strings.Join([]string{f, b, c}, "\n")
}

// Hash returns the hex SHA-256 of the normalized content. Cards whose text
// differs only in case or surrounding whitespace share a hash.
func Hash(content domain.CardContent) string {
	sum := sha256.Sum256([]byte(Normalize(content)))
	return fmt.Sprintf("%x", sum)
}
