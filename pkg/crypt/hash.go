package crypt

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crystal-mush/mushconv/pkg/lineage"
)

const (
	sha1Prefix  = "$SHA1$"
	pennPrefix  = "2:sha512:"
	pennLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// PennMarker tags a PennMUSH hash carried into another lineage.
const PennMarker = "$P6H$$"

// Hasher builds password hashes. Rand and Now are replaceable for tests.
type Hasher struct {
	Rand func(b []byte) (int, error)
	Now  func() time.Time
}

// Default uses crypto/rand and the wall clock.
var Default = &Hasher{Rand: rand.Read, Now: time.Now}

// Hash returns password in the form l stores it.
func Hash(l *lineage.Lineage, password string) (string, error) {
	return Default.Hash(l, password)
}

// Hash returns password in the form l stores it.
func (h *Hasher) Hash(l *lineage.Lineage, password string) (string, error) {
	switch l {
	case lineage.T6H, lineage.R7H:
		return desHash(password, DESSalt)
	case lineage.T5X:
		raw := make([]byte, 9)
		if _, err := h.Rand(raw); err != nil {
			return "", fmt.Errorf("salt: %w", err)
		}
		return sha1Hash(base64.StdEncoding.EncodeToString(raw), password), nil
	case lineage.P6H:
		raw := make([]byte, 2)
		if _, err := h.Rand(raw); err != nil {
			return "", fmt.Errorf("salt: %w", err)
		}
		salt := string([]byte{pennLetters[int(raw[0])%len(pennLetters)], pennLetters[int(raw[1])%len(pennLetters)]})
		return pennHash(salt, password, h.Now().Unix()), nil
	}
	return "", fmt.Errorf("no password format for %s", l.Name)
}

func sha1Hash(salt, password string) string {
	sum := sha1.Sum([]byte(salt + password))
	return sha1Prefix + salt + "$" + base64.StdEncoding.EncodeToString(sum[:])
}

func pennHash(salt, password string, when int64) string {
	sum := sha512.Sum512([]byte(salt + password))
	return pennPrefix + salt + hex.EncodeToString(sum[:]) + ":" + strconv.FormatInt(when, 10)
}

// Check reports whether password matches a stored hash in any format this
// package writes. A hash carried over from PennMUSH keeps its marker.
func Check(password, stored string) bool {
	stored = strings.TrimPrefix(stored, PennMarker)
	switch {
	case strings.HasPrefix(stored, sha1Prefix):
		rest := stored[len(sha1Prefix):]
		i := strings.IndexByte(rest, '$')
		if i < 0 {
			return false
		}
		return equal(sha1Hash(rest[:i], password), stored)
	case strings.HasPrefix(stored, pennPrefix):
		rest := stored[len(pennPrefix):]
		i := strings.LastIndexByte(rest, ':')
		if i < 2 {
			return false
		}
		when, err := strconv.ParseInt(rest[i+1:], 10, 64)
		if err != nil {
			return false
		}
		return equal(pennHash(rest[:2], password, when), stored)
	}
	return checkDES(password, stored)
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
