package bronze

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"lakeload/internal/domain"
)

// Normalize validates that content is UTF-8 and strips a leading byte order
// mark. All other bytes are returned unchanged.
func Normalize(content []byte) ([]byte, error) {
	if !utf8.Valid(content) {
		return nil, domain.ErrValidation("content is not valid UTF-8")
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(content)
	if err != nil {
		return nil, domain.ErrValidation("decode UTF-8: %v", err)
	}
	return out, nil
}

// Checksum returns the hex-encoded SHA-256 of content.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
