package types

import (
	"encoding/hex"
	"fmt"

	"github.com/cometbft/cometbft/crypto"
)

var treasuryAddress = crypto.AddressHash([]byte("polis/treasury")).String()

// TreasuryAddress is the module account that pools joined stakes and funds
// payouts. It has no signing key; funds leave it only through execution.
func TreasuryAddress() string {
	return treasuryAddress
}

// HexAddress canonicalizes a hex account address to the uppercase form used
// in state keys and events.
func HexAddress(s string) (string, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("invalid address %v: %w", s, err)
	}
	if len(raw) != crypto.AddressSize {
		return "", fmt.Errorf("invalid address %v: want %v bytes got %v", s, crypto.AddressSize, len(raw))
	}
	return crypto.Address(raw).String(), nil
}
