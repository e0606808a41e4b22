package solacc

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

const PubkeySize = 32

// Pubkey is an ed25519 public key, or any other 32 byte account address.
type Pubkey [PubkeySize]byte

// String returns the base58 address, same as solana's Display impl.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// IsZero is true for the all zero key (the system program id).
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// PubkeyFromString parses a base58 address.
func PubkeyFromString(s string) (Pubkey, error) {
	var p Pubkey
	b := base58.Decode(s)
	if len(b) != PubkeySize {
		return p, fmt.Errorf("pubkey %q decodes to %d bytes, want %d",
			s, len(b), PubkeySize)
	}
	copy(p[:], b)
	return p, nil
}
