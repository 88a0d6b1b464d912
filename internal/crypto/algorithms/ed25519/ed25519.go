// Package ed25519 derives deterministic wallet keypairs.
package ed25519

import (
	"crypto/ed25519"
	"errors"

	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

var ErrInvalidSeed = errors.New("ed25519: seed must be 32 bytes")

// Keypair is a wallet signing key and its address.
type Keypair struct {
	PrivateKey ed25519.PrivateKey
	Pubkey     types.Pubkey
}

// FromSeed expands a 32-byte seed.
func FromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, ErrInvalidSeed
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var pub types.Pubkey
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return Keypair{PrivateKey: priv, Pubkey: pub}, nil
}

// FromName derives the keypair whose seed is sha256(name). The same name
// always yields the same wallet.
func FromName(name string) Keypair {
	seed := crypto.Sha256([]byte(name))
	kp, _ := FromSeed(seed[:])
	return kp
}

// Sign signs message.
func (k Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.PrivateKey, message)
}

// Verify reports whether sig is pub's signature of message.
func Verify(pub types.Pubkey, message, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig)
}
