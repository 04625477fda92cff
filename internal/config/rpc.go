package config

import (
	"errors"
	"os"
	"slices"
)

type RPCConfig struct {
	RPCUrl string
	WSUrl  string

	// Airdrops instead of real funding are only allowed off prod clusters.
	AllowAirdrop bool
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = getEnvOrDefault("RPC_URL", "http://127.0.0.1:8899")
	r.WSUrl = getEnvOrDefault("WS_URL", "ws://127.0.0.1:8900")
	r.AllowAirdrop = os.Getenv("ALLOW_AIRDROP") != "false"
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if slices.Contains([]string{r.RPCUrl, r.WSUrl}, "") {
		return errors.New("invalid rpc config")
	}
	return nil
}
