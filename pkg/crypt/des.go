// Package crypt hashes and verifies the password formats each lineage
// stores, and rewrites a player's password in a snapshot.
package crypt

import (
	"fmt"

	descrypt "github.com/digitive/crypt"
)

// DESSalt is the fixed salt TinyMUSH and RhostMUSH hash with.
const DESSalt = "XX"

// desHash is crypt(3) over password with a two-character salt.
func desHash(password, salt string) (string, error) {
	out, err := descrypt.Crypt(password, salt)
	if err != nil {
		return "", fmt.Errorf("des crypt: %w", err)
	}
	return out, nil
}

// checkDES recomputes stored using its own leading salt.
func checkDES(password, stored string) bool {
	if len(stored) != 13 {
		return false
	}
	out, err := desHash(password, stored[:2])
	return err == nil && equal(out, stored)
}
