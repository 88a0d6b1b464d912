package crypto

import "crypto/sha256"

// Sha256 returns the sha256 digest of the concatenated parts.
func Sha256(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil))
	return result
}

// Discriminator returns the first 8 bytes of sha256("<namespace>:<name>").
// Instructions use the "global" namespace, account layouts use "account".
func Discriminator(namespace, name string) [8]byte {
	h := Sha256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], h[:8])
	return d
}
