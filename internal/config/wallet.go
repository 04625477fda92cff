package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/hypeeconomy/hype-engine/internal/wallet"
)

// WalletConfig carries the process-wide signing material. The platform
// secret is resolved and checked once here; it is read-only afterwards.
type WalletConfig struct {
	PlatformWallet solana.PrivateKey
	PlatformPubkey solana.PublicKey

	AMMProgramID          solana.PublicKey
	TokenFactoryProgramID solana.PublicKey
}

func (w *WalletConfig) Key() string {
	return WALLET_CONFIG_KEY
}

func (w *WalletConfig) Load() error {
	secret := os.Getenv("PLATFORM_WALLET_SECRET")
	if secret == "" {
		return errors.New("PLATFORM_WALLET_SECRET is not set")
	}

	key, err := wallet.ParseSecret(secret)
	if err != nil {
		return fmt.Errorf("PLATFORM_WALLET_SECRET is malformed: %w", err)
	}
	w.PlatformWallet = key
	w.PlatformPubkey = key.PublicKey()

	if expected := os.Getenv("PLATFORM_WALLET_PUBKEY"); expected != "" {
		pub, err := solana.PublicKeyFromBase58(expected)
		if err != nil {
			return fmt.Errorf("PLATFORM_WALLET_PUBKEY is malformed: %w", err)
		}
		if !w.PlatformPubkey.Equals(pub) {
			return fmt.Errorf("platform wallet public key mismatch: expected %s, got %s", pub, w.PlatformPubkey)
		}
	}

	w.AMMProgramID, err = programID("AMM_PROGRAM_ID")
	if err != nil {
		return err
	}
	w.TokenFactoryProgramID, err = programID("TOKEN_FACTORY_PROGRAM_ID")
	if err != nil {
		return err
	}
	return w.Validate()
}

func (w *WalletConfig) Validate() error {
	if len(w.PlatformWallet) == 0 || w.AMMProgramID.IsZero() || w.TokenFactoryProgramID.IsZero() {
		return errors.New("invalid wallet config")
	}
	return nil
}

func programID(env string) (solana.PublicKey, error) {
	raw := os.Getenv(env)
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is not set", env)
	}
	pk, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s is malformed: %w", env, err)
	}
	return pk, nil
}
