package solacc

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// DepositDiscriminator tags account data holding a bridge deposit. It is
// the anchor style account discriminator sha256("account:DepositMessage")[:8].
var DepositDiscriminator = func() (d [8]byte) {
	sum := sha256.Sum256([]byte("account:DepositMessage"))
	copy(d[:], sum[:8])
	return
}()

// DepositSize is the discriminator plus the fixed body. Trailing bytes
// (account padding) are ignored.
const DepositSize = 8 + 8 + 8 + PubkeySize + PubkeySize + ethcommon.AddressLength + 8

var (
	ErrNotDeposit     = errors.New("account data is not a deposit")
	ErrDepositShort   = errors.New("deposit data truncated")
	ErrDepositInvalid = errors.New("deposit fields invalid")
)

// DepositMessage is a cross chain deposit recorded in a bridge account.
// It is not signed on its own; it is trusted because the account holding
// it is proven into a verified slot.
type DepositMessage struct {
	Nonce     uint64
	ChainID   uint64
	Depositor Pubkey
	Mint      Pubkey
	Recipient ethcommon.Address
	Amount    uint64
}

func (d *DepositMessage) String() string {
	return fmt.Sprintf("deposit nonce %d chain %d %d of %s from %s to %s",
		d.Nonce, d.ChainID, d.Amount, d.Mint, d.Depositor, d.Recipient.Hex())
}

// DecodeDeposit applies the deposit tag rule to account data. Layout, all
// integers little endian:
//
//	[0:8]     discriminator
//	[8:16]    nonce
//	[16:24]   chain id
//	[24:56]   depositor
//	[56:88]   mint
//	[88:108]  recipient (evm address)
//	[108:116] amount
//
// A zero amount or zero recipient does not decode.
func DecodeDeposit(data []byte) (*DepositMessage, error) {
	if len(data) < len(DepositDiscriminator) ||
		!bytes.Equal(data[:8], DepositDiscriminator[:]) {
		return nil, ErrNotDeposit
	}
	if len(data) < DepositSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrDepositShort,
			len(data), DepositSize)
	}

	d := new(DepositMessage)
	b := data[8:]
	d.Nonce = binary.LittleEndian.Uint64(b[0:8])
	d.ChainID = binary.LittleEndian.Uint64(b[8:16])
	copy(d.Depositor[:], b[16:48])
	copy(d.Mint[:], b[48:80])
	d.Recipient = ethcommon.BytesToAddress(b[80:100])
	d.Amount = binary.LittleEndian.Uint64(b[100:108])

	if d.Amount == 0 {
		return nil, fmt.Errorf("%w: zero amount", ErrDepositInvalid)
	}
	if d.Recipient == (ethcommon.Address{}) {
		return nil, fmt.Errorf("%w: zero recipient", ErrDepositInvalid)
	}
	return d, nil
}

// Encode lays the deposit out the way DecodeDeposit reads it.
func (d *DepositMessage) Encode() []byte {
	out := make([]byte, DepositSize)
	copy(out, DepositDiscriminator[:])
	b := out[8:]
	binary.LittleEndian.PutUint64(b[0:8], d.Nonce)
	binary.LittleEndian.PutUint64(b[8:16], d.ChainID)
	copy(b[16:48], d.Depositor[:])
	copy(b[48:80], d.Mint[:])
	copy(b[80:100], d.Recipient[:])
	binary.LittleEndian.PutUint64(b[100:108], d.Amount)
	return out
}
