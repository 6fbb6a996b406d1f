package hash

import (
	"golang.org/x/crypto/sha3"
)

// SelectorLength is the size of a contract method selector in bytes.
const SelectorLength = 4

// Keccak256 computes the Keccak-256 hash of the concatenated input.
// Ethereum uses the original Keccak padding, not NIST SHA3-256.
func Keccak256(data ...[]byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	return hasher.Sum(nil)
}

// Selector returns the 4-byte method selector for a canonical signature
// such as "transfer(address,uint256)".
func Selector(signature string) [SelectorLength]byte {
	var selector [SelectorLength]byte
	copy(selector[:], Keccak256([]byte(signature)))
	return selector
}
