package vault

import (
	"errors"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
)

// StateLen is the packed size of State, discriminator included.
const StateLen = 8 + 1 + 1

// StateDiscriminator prefixes every vault state account.
var StateDiscriminator = crypto.Discriminator("account", "VaultState")

var ErrNotVaultState = errors.New("vault: account is not a vault state")

// State records the bumps of a user's vault addresses.
type State struct {
	VaultBump uint8
	StateBump uint8
}

// Pack encodes the state.
func (s *State) Pack() []byte {
	return binarycodec.NewBinarySerializer(StateLen).
		WriteDiscriminator(StateDiscriminator).
		WriteU8(s.VaultBump).
		WriteU8(s.StateBump).
		GetSink()
}

// UnpackState decodes a vault state account.
func UnpackState(data []byte) (*State, error) {
	if len(data) != StateLen {
		return nil, ErrNotVaultState
	}
	p := binarycodec.NewBinaryParser(data)
	disc, _ := p.ReadDiscriminator()
	if disc != StateDiscriminator {
		return nil, ErrNotVaultState
	}
	s := &State{}
	s.VaultBump, _ = p.ReadByte()
	s.StateBump, _ = p.ReadByte()
	return s, nil
}
