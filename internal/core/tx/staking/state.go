package staking

import (
	"errors"
	"fmt"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Packed sizes, discriminator included.
const (
	ConfigLen = 8 + 32 + 32 + 32 + 8 + 1 + 8 + 1
	UserLen   = 8 + 32 + 8 + 8 + 8 + 1
	StakeLen  = 8 + 32 + 32 + 8 + 8 + 1 + 1
)

// Account discriminators.
var (
	ConfigDiscriminator      = crypto.Discriminator("account", "StakeConfig")
	UserDiscriminator        = crypto.Discriminator("account", "UserAccount")
	StakeRecordDiscriminator = crypto.Discriminator("account", "StakeAccount")
)

var (
	ErrInvalidLength = errors.New("staking: invalid account length")
	ErrWrongKind     = errors.New("staking: unexpected account discriminator")
)

// Config is the program-wide staking configuration.
type Config struct {
	Authority   types.Pubkey
	RewardMint  types.Pubkey
	Collection  types.Pubkey
	RewardRate  uint64
	Paused      bool
	TotalStaked uint64
	Bump        uint8
}

// User tracks one staker.
type User struct {
	Owner         types.Pubkey
	TotalStaked   uint64
	RewardClaimed uint64
	LastClaimTime int64
	Bump          uint8
}

// StakeRecord records a staked NFT. It exists only while the NFT is staked.
type StakeRecord struct {
	Owner         types.Pubkey
	Mint          types.Pubkey
	StakeTime     int64
	LastClaimTime int64
	Staked        bool
	Bump          uint8
}

// Pack encodes the config.
func (c *Config) Pack() []byte {
	return binarycodec.NewBinarySerializer(ConfigLen).
		WriteDiscriminator(ConfigDiscriminator).
		WriteBytes(c.Authority[:]).
		WriteBytes(c.RewardMint[:]).
		WriteBytes(c.Collection[:]).
		WriteU64(c.RewardRate).
		WriteBool(c.Paused).
		WriteU64(c.TotalStaked).
		WriteU8(c.Bump).
		GetSink()
}

// Pack encodes the user account.
func (u *User) Pack() []byte {
	return binarycodec.NewBinarySerializer(UserLen).
		WriteDiscriminator(UserDiscriminator).
		WriteBytes(u.Owner[:]).
		WriteU64(u.TotalStaked).
		WriteU64(u.RewardClaimed).
		WriteU64(uint64(u.LastClaimTime)).
		WriteU8(u.Bump).
		GetSink()
}

// Pack encodes the stake record.
func (s *StakeRecord) Pack() []byte {
	return binarycodec.NewBinarySerializer(StakeLen).
		WriteDiscriminator(StakeRecordDiscriminator).
		WriteBytes(s.Owner[:]).
		WriteBytes(s.Mint[:]).
		WriteU64(uint64(s.StakeTime)).
		WriteU64(uint64(s.LastClaimTime)).
		WriteBool(s.Staked).
		WriteU8(s.Bump).
		GetSink()
}

// unpack reads a fixed layout in order. Destinations are *types.Pubkey,
// *uint64, *int64, *bool or *uint8.
func unpack(data []byte, size int, disc [8]byte, dst ...any) error {
	if len(data) != size {
		return fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(data))
	}
	p := binarycodec.NewBinaryParser(data)
	got, err := p.ReadDiscriminator()
	if err != nil {
		return err
	}
	if got != disc {
		return ErrWrongKind
	}
	for _, d := range dst {
		switch v := d.(type) {
		case *types.Pubkey:
			*v, err = p.ReadKey()
		case *uint64:
			*v, err = p.ReadU64()
		case *int64:
			var u uint64
			u, err = p.ReadU64()
			*v = int64(u)
		case *bool:
			*v, err = p.ReadBool()
		case *uint8:
			*v, err = p.ReadByte()
		default:
			err = fmt.Errorf("staking: cannot decode into %T", d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// UnpackConfig decodes a config account.
func UnpackConfig(data []byte) (*Config, error) {
	c := &Config{}
	err := unpack(data, ConfigLen, ConfigDiscriminator,
		&c.Authority, &c.RewardMint, &c.Collection, &c.RewardRate, &c.Paused, &c.TotalStaked, &c.Bump)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UnpackUser decodes a user account.
func UnpackUser(data []byte) (*User, error) {
	u := &User{}
	err := unpack(data, UserLen, UserDiscriminator,
		&u.Owner, &u.TotalStaked, &u.RewardClaimed, &u.LastClaimTime, &u.Bump)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UnpackStake decodes a stake record.
func UnpackStake(data []byte) (*StakeRecord, error) {
	s := &StakeRecord{}
	err := unpack(data, StakeLen, StakeRecordDiscriminator,
		&s.Owner, &s.Mint, &s.StakeTime, &s.LastClaimTime, &s.Staked, &s.Bump)
	if err != nil {
		return nil, err
	}
	return s, nil
}
