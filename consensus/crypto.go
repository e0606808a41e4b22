package consensus

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/common"
)

// VerifyEd25519 reports whether sig is a valid signature of msg by pubkey.
// Keys or signatures of the wrong length just fail.
func VerifyEd25519(pubkey, msg, sig []byte) bool {
	if len(pubkey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pubkey, msg, sig)
}

// RecomputeBankHash is the bank hash derivation of the solana runtime:
//
//	sha256(parent || account_delta_root || u64le(num_sigs) || blockhash)
func RecomputeBankHash(parent, accountDeltaRoot accumulator.Hash,
	numSigs uint64, blockhash accumulator.Hash) accumulator.Hash {

	fb := common.NewFreeBytes()
	defer fb.Free()

	fb.Bytes = append(fb.Bytes, parent[:]...)
	fb.Bytes = append(fb.Bytes, accountDeltaRoot[:]...)
	fb.Bytes = append(fb.Bytes,
		byte(numSigs), byte(numSigs>>8), byte(numSigs>>16), byte(numSigs>>24),
		byte(numSigs>>32), byte(numSigs>>40), byte(numSigs>>48), byte(numSigs>>56))
	fb.Bytes = append(fb.Bytes, blockhash[:]...)
	return sha256.Sum256(fb.Bytes)
}
