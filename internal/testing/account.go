package testing

import (
	"crypto/ed25519"

	keys "github.com/LeJamon/goEscrowd/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// MasterName is the name of the genesis faucet account.
const MasterName = "master"

// Account represents a test wallet with a deterministic ed25519 keypair.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// PrivateKey is derived from sha256(Name).
	PrivateKey ed25519.PrivateKey

	// Pubkey is the wallet address.
	Pubkey types.Pubkey
}

// NewAccount creates a new test account with a deterministic keypair derived from the name.
// Using the same name will always produce the same account, making tests reproducible.
func NewAccount(name string) *Account {
	kp := keys.FromName(name)
	return &Account{
		Name:       name,
		PrivateKey: kp.PrivateKey,
		Pubkey:     kp.Pubkey,
	}
}

// MasterAccount returns the account funded at genesis.
func MasterAccount() *Account {
	return NewAccount(MasterName)
}

// String returns the account name and address.
func (a *Account) String() string {
	return a.Name + "(" + a.Pubkey.String() + ")"
}

// Keys returns the addresses of accounts, in order.
func Keys(accounts ...*Account) []types.Pubkey {
	out := make([]types.Pubkey, len(accounts))
	for i, a := range accounts {
		out[i] = a.Pubkey
	}
	return out
}
