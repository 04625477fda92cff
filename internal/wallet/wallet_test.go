package wallet

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/common"
)

func jsonArray(key solana.PrivateKey) string {
	parts := make([]string, len(key))
	for i, b := range key {
		parts[i] = fmt.Sprintf("%d", b)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func csvBytes(key solana.PrivateKey) string {
	parts := make([]string, len(key))
	for i, b := range key {
		parts[i] = fmt.Sprintf("%d", b)
	}
	return strings.Join(parts, ",")
}

func TestParseSecretAcceptsAllLegacyEncodings(t *testing.T) {
	w := solana.NewWallet()

	encodings := map[string]string{
		"json array":      jsonArray(w.PrivateKey),
		"comma separated": csvBytes(w.PrivateKey),
		"base64":          base64.StdEncoding.EncodeToString(w.PrivateKey),
		"base58":          Canonical(w.PrivateKey),
	}

	for name, raw := range encodings {
		t.Run(name, func(t *testing.T) {
			key, err := ParseSecret(raw)
			require.NoError(t, err)
			assert.Equal(t, w.PublicKey(), key.PublicKey())
		})
	}
}

func TestParseSecretRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not a key",
		"[1,2,3]",
		"1,2,3",
		"[1,2,\"x\"]",
	}
	for _, raw := range cases {
		_, err := ParseSecret(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestCanonicalRoundTrips(t *testing.T) {
	w := solana.NewWallet()

	key, err := ParseSecret(Canonical(w.PrivateKey))
	require.NoError(t, err)
	assert.Equal(t, w.PrivateKey, key)
	assert.Equal(t, Canonical(w.PrivateKey), Canonical(key))
}

func TestResolveRejectsMismatchedPubkey(t *testing.T) {
	stored := solana.NewWallet()
	other := solana.NewWallet()

	_, err := Resolve(RoleUser, Canonical(stored.PrivateKey), other.PublicKey())
	require.Error(t, err)
	assert.Equal(t, common.KindWalletMismatch, common.KindOf(err))
}

func TestResolveReturnsMatchingKey(t *testing.T) {
	w := solana.NewWallet()

	key, err := Resolve(RolePlatform, Canonical(w.PrivateKey), w.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, w.PrivateKey, key)
}
