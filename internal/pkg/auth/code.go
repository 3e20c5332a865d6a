package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

var codePattern = regexp.MustCompile(`^\d{6}$`)

// GenerateCode returns a uniformly random 6-digit numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashCode returns the hex-encoded SHA-256 digest of a verification code.
// Only the digest is ever persisted.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// ValidCodeFormat reports whether the supplied code is exactly 6 digits.
func ValidCodeFormat(code string) bool {
	return codePattern.MatchString(code)
}
