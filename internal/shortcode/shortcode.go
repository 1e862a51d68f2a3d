// Package shortcode generates the compact public identifiers that map to
// destination URLs.
package shortcode

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Length is the fixed length of every generated short code.
	Length = 8
	// Alphabet is the URL-safe set of characters codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// Generate produces a random short code of Length characters drawn from
// Alphabet using a cryptographically strong source. Generated codes are not
// checked against existing records; uniqueness is enforced by the database
// index at insertion time.
func Generate() (string, error) {
	const op = "shortcode.Generate"

	code, err := gonanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}
