// Package keylet derives the addresses of program-owned accounts.
//
// A program-derived address is sha256(seed_1 || ... || seed_n || program ||
// "ProgramDerivedAddress") and must not be a valid ed25519 point, so no
// private key can ever sign for it. Only the program it was derived under can
// act on its behalf.
package keylet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

const (
	// MaxSeeds is the maximum number of seeds, bump included.
	MaxSeeds = 16

	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

// Seed prefixes.
var (
	seedEscrow = []byte("escrow")
	seedState  = []byte("state")
	seedVault  = []byte("vault")

	seedStakeConfig  = []byte("stake_config")
	seedStakeAccount = []byte("stake_account")
	seedStakeUser    = []byte("user_account")
	seedMetadata     = []byte("metadata")
	seedEdition      = []byte("edition")
)

var (
	// ErrMaxSeedLengthExceeded is returned for too many seeds or an oversized seed.
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidSeeds is returned when the seeds hash to an on-curve point.
	ErrInvalidSeeds = errors.New("provided seeds do not result in a valid address")

	// ErrNoViableBump is returned when no bump in [0, 255] yields an
	// off-curve address.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
)

// Keylet is a derived address together with the bump that produced it.
type Keylet struct {
	Address types.Pubkey
	Bump    uint8
}

func (k Keylet) String() string {
	return fmt.Sprintf("%s (bump %d)", k.Address, k.Bump)
}

// IsOnCurve reports whether b decodes to a point on the ed25519 curve.
// Non-canonical encodings are accepted.
func IsOnCurve(b [32]byte) bool {
	_, err := edwards25519.NewIdentityPoint().SetBytes(b[:])
	return err == nil
}

// CreateProgramAddress hashes seeds under program and rejects the result if
// it lies on the curve.
func CreateProgramAddress(seeds [][]byte, program types.Pubkey) (types.Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return types.Pubkey{}, fmt.Errorf("%d seeds: %w", len(seeds), ErrMaxSeedLengthExceeded)
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return types.Pubkey{}, fmt.Errorf("seed %d is %d bytes: %w", i, len(seed), ErrMaxSeedLengthExceeded)
		}
	}

	parts := make([][]byte, 0, len(seeds)+2)
	parts = append(parts, seeds...)
	parts = append(parts, program[:], []byte(pdaMarker))

	hash := crypto.Sha256(parts...)
	if IsOnCurve(hash) {
		return types.Pubkey{}, ErrInvalidSeeds
	}
	return types.Pubkey(hash), nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the first
// off-curve address.
func FindProgramAddress(seeds [][]byte, program types.Pubkey) (Keylet, error) {
	if len(seeds) >= MaxSeeds {
		return Keylet{}, fmt.Errorf("%d seeds leave no room for a bump: %w", len(seeds), ErrMaxSeedLengthExceeded)
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}

	for b := 255; b >= 0; b-- {
		bump[0] = byte(b)
		withBump[len(seeds)] = bump
		addr, err := CreateProgramAddress(withBump, program)
		switch {
		case err == nil:
			return Keylet{Address: addr, Bump: uint8(b)}, nil
		case errors.Is(err, ErrInvalidSeeds):
			continue
		default:
			return Keylet{}, err
		}
	}
	return Keylet{}, ErrNoViableBump
}

// U64Seed encodes v as an 8-byte little-endian seed.
func U64Seed(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

// EscrowSeeds returns the seeds of an escrow record without the bump.
func EscrowSeeds(maker types.Pubkey, seed uint64) [][]byte {
	return [][]byte{seedEscrow, maker[:], U64Seed(seed)}
}

// Escrow returns the address of the escrow record for (maker, seed).
func Escrow(maker types.Pubkey, seed uint64) (Keylet, error) {
	return FindProgramAddress(EscrowSeeds(maker, seed), types.EscrowProgramID)
}

// AssociatedToken returns the canonical holding account of owner for mint.
func AssociatedToken(owner, mint types.Pubkey) (Keylet, error) {
	return FindProgramAddress(
		[][]byte{owner[:], types.TokenProgramID[:], mint[:]},
		types.AssociatedTokenProgramID,
	)
}

// Vault returns the custody vault of an escrow record.
func Vault(escrow, mintA types.Pubkey) (Keylet, error) {
	return AssociatedToken(escrow, mintA)
}

// VaultStateSeeds returns the seeds of a lamport vault's state account.
func VaultStateSeeds(user types.Pubkey) [][]byte {
	return [][]byte{seedState, user[:]}
}

// VaultState returns the state account of user's lamport vault.
func VaultState(user types.Pubkey) (Keylet, error) {
	return FindProgramAddress(VaultStateSeeds(user), types.VaultProgramID)
}

// LamportVaultSeeds returns the seeds of the lamport vault owned by state.
func LamportVaultSeeds(state types.Pubkey) [][]byte {
	return [][]byte{seedVault, state[:]}
}

// LamportVault returns the system-owned account that holds a user's lamports.
func LamportVault(state types.Pubkey) (Keylet, error) {
	return FindProgramAddress(LamportVaultSeeds(state), types.VaultProgramID)
}

// StakeConfigSeeds returns the seeds of the staking program's config.
func StakeConfigSeeds() [][]byte {
	return [][]byte{seedStakeConfig}
}

// StakeConfig returns the address of the staking program's config.
func StakeConfig() (Keylet, error) {
	return FindProgramAddress(StakeConfigSeeds(), types.StakingProgramID)
}

// StakeUserSeeds returns the seeds of a staker's account.
func StakeUserSeeds(user types.Pubkey) [][]byte {
	return [][]byte{seedStakeUser, user[:]}
}

// StakeUser returns the account tracking user's stakes and points.
func StakeUser(user types.Pubkey) (Keylet, error) {
	return FindProgramAddress(StakeUserSeeds(user), types.StakingProgramID)
}

// StakeAccountSeeds returns the seeds of the stake record of an NFT mint.
func StakeAccountSeeds(mint types.Pubkey) [][]byte {
	return [][]byte{seedStakeAccount, mint[:]}
}

// StakeAccount returns the stake record of mint. A mint is staked at most
// once at a time.
func StakeAccount(mint types.Pubkey) (Keylet, error) {
	return FindProgramAddress(StakeAccountSeeds(mint), types.StakingProgramID)
}

// Metadata returns the metadata address of mint under the metadata program.
func Metadata(mint types.Pubkey) (Keylet, error) {
	return FindProgramAddress(
		[][]byte{seedMetadata, types.MetadataProgramID[:], mint[:]},
		types.MetadataProgramID,
	)
}

// MasterEdition returns the master edition address of mint.
func MasterEdition(mint types.Pubkey) (Keylet, error) {
	return FindProgramAddress(
		[][]byte{seedMetadata, types.MetadataProgramID[:], mint[:], seedEdition},
		types.MetadataProgramID,
	)
}

// WithBump appends the bump seed to seeds.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, len(seeds), len(seeds)+1)
	copy(out, seeds)
	return append(out, []byte{bump})
}
