// Package wallet loads signing keypairs from persisted secret material.
//
// Legacy records store the 64-byte ed25519 secret in three inconsistent
// shapes: a JSON byte array, a comma-separated decimal list, or a base64
// string. All three are accepted on read; everything written from now on is
// base58 (see Canonical).
package wallet

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/hypeeconomy/hype-engine/internal/common"
)

const secretKeyLen = 64

// Role names the three wallet roles the orchestration core signs with.
type Role string

const (
	RolePlatform    Role = "platform"
	RoleTokenSource Role = "token-source"
	RoleUser        Role = "user"
)

// ParseSecret normalizes any of the supported secret encodings into a
// solana.PrivateKey. The encoding is detected from the payload itself, never
// guessed from context.
func ParseSecret(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty secret")
	}

	var buf []byte
	switch {
	case strings.HasPrefix(raw, "["):
		if err := json.Unmarshal([]byte(raw), &buf); err != nil {
			return nil, fmt.Errorf("invalid JSON byte array secret: %w", err)
		}
	case strings.Contains(raw, ","):
		parts := strings.Split(raw, ",")
		buf = make([]byte, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return nil, fmt.Errorf("invalid byte %q in comma-separated secret", p)
			}
			buf = append(buf, byte(n))
		}
	default:
		// base58 first (canonical), then base64 for legacy records.
		if b, err := base58.Decode(raw); err == nil && len(b) == secretKeyLen {
			buf = b
		} else if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
			buf = b
		} else {
			return nil, fmt.Errorf("secret is neither base58 nor base64")
		}
	}

	if len(buf) != secretKeyLen {
		return nil, fmt.Errorf("invalid secret key length: expected %d bytes, got %d", secretKeyLen, len(buf))
	}
	return solana.PrivateKey(buf), nil
}

// Canonical returns the persisted form of a secret: base58 of the full
// 64-byte key.
func Canonical(key solana.PrivateKey) string {
	return base58.Encode(key)
}

// Resolve parses the stored secret for a role and asserts that the derived
// public key equals the one recorded for that role. A mismatch is a
// KindWalletMismatch error; the keypair is never substituted or corrected.
func Resolve(role Role, secret string, expected solana.PublicKey) (solana.PrivateKey, error) {
	key, err := ParseSecret(secret)
	if err != nil {
		return nil, common.WrapError(common.KindWalletMismatch, err, "%s wallet secret unreadable", role)
	}
	if got := key.PublicKey(); !got.Equals(expected) {
		return nil, common.NewError(common.KindWalletMismatch,
			"%s wallet public key mismatch: expected %s, got %s", role, expected, got)
	}
	return key, nil
}
