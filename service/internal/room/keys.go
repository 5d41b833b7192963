// internal/room/keys.go
package room

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	keyAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength     = 6
	maxNameLength = 20
)

var roomKeyPattern = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)

// NormalizeKey upper-cases and trims a user supplied room key.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// generateRoomKey returns a random 6 character key.
func generateRoomKey() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(keyAlphabet)))
	for i := 0; i < keyLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate room key: %w", err)
		}
		b.WriteByte(keyAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// validName trims name and checks its length.
func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
