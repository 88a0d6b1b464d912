// Package testing provides test infrastructure for escrowd programs.
//
// It provides a deterministic environment in the style of a jtx framework:
// a real Ledger and Engine with every program installed, named accounts
// with reproducible keys, and assertions over transaction results.
//
// # Basic Usage
//
//	func TestTransfer(t *testing.T) {
//	    env := jtx.NewTestEnv(t)
//
//	    alice := jtx.NewAccount("alice")
//	    bob := jtx.NewAccount("bob")
//	    env.Fund(alice)
//
//	    result := env.Submit([]*jtx.Account{alice},
//	        system.Transfer(alice.Pubkey, bob.Pubkey, 1_000))
//	    jtx.RequireTxSuccess(t, result)
//	}
//
// # TestEnv
//
// NewTestEnv installs the registered programs and funds a master account
// with GenesisLamports. Options select a disk backend or a sqlite journal:
//
//	env := jtx.NewTestEnv(t, jtx.WithBackend(backends.Pebble), jtx.WithHistory())
//	env.Fund(alice)                            // DefaultFund lamports
//	mint := env.CreateMint("mint", alice, 6)   // token mint, alice is authority
//	env.MintTo(mint, alice, bob, 500)          // into bob's associated account
//	env.TokenBalance(bob, mint)                // 500
//
// # Account
//
// Account derives an ed25519 keypair from sha256 of its name, so the same
// name always yields the same address.
//
// Protocol-specific builders live in subpackages such as escrow.
package testing
