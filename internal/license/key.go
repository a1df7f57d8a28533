package license

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Key format: EIMS-XXXX-XXXX-XXXX where X is an uppercase alphanumeric.
const (
	KeyPrefix = "EIMS"
	KeyLength = 19 // prefix + 3 hyphens + 12 characters
	groupLen  = 4
)

var keyPattern = regexp.MustCompile(`^EIMS-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// IsValidKeyFormat reports whether key matches the canonical format exactly.
// It is strict: lowercase, wrong grouping, or wrong length all fail. Callers
// taking raw user input should run the key through FormatKey first.
func IsValidKeyFormat(key string) bool {
	return keyPattern.MatchString(key)
}

// FormatKey normalizes raw keystrokes into the canonical hyphenated shape:
// strip everything that is not alphanumeric, uppercase, regroup every four
// characters after the EIMS prefix, and truncate to the canonical length.
// FormatKey is idempotent.
func FormatKey(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) <= groupLen {
		return clean
	}

	var parts []string
	rest := clean
	if strings.HasPrefix(clean, KeyPrefix) {
		parts = append(parts, KeyPrefix)
		rest = clean[len(KeyPrefix):]
	}
	for i := 0; i < len(rest); i += groupLen {
		end := i + groupLen
		if end > len(rest) {
			end = len(rest)
		}
		parts = append(parts, rest[i:end])
	}

	key := strings.Join(parts, "-")
	if len(key) > KeyLength {
		key = key[:KeyLength]
	}
	return key
}

// GenerateKey creates a new random license key in canonical format.
func GenerateKey() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	h := strings.ToUpper(hex.EncodeToString(b))
	return fmt.Sprintf("%s-%s-%s-%s", KeyPrefix, h[0:4], h[4:8], h[8:12]), nil
}
