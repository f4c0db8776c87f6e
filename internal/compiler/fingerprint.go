package compiler

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintKey separates source fingerprints from other BLAKE3 uses. It
// is the ASCII domain name zero-padded to 32 bytes; changing it
// invalidates every stored fingerprint.
var fingerprintKey = [32]byte{
	'b', 'l', 'u', 'e', 'p', 'r', 'i', 'n', 't', '.', 's', 'o', 'u', 'r', 'c', 'e',
}

func fingerprint(src []byte) string {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("compiler: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(src)
	return hex.EncodeToString(hasher.Sum(nil))
}
