package token

import (
	"errors"
	"fmt"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Packed sizes.
const (
	MintLen    = 82
	AccountLen = 165
)

// AccountState is the lifecycle state of a holding account.
type AccountState uint8

const (
	AccountUninitialized AccountState = iota
	AccountInitialized
	AccountFrozen
)

var (
	ErrInvalidLength  = errors.New("token: invalid data length")
	ErrNotInitialized = errors.New("token: not initialized")
)

// Mint describes an asset.
type Mint struct {
	MintAuthority   *types.Pubkey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *types.Pubkey
}

func optKey(k *types.Pubkey) ([32]byte, bool) {
	if k == nil {
		return [32]byte{}, false
	}
	return *k, true
}

func keyPtr(k [32]byte, present bool) *types.Pubkey {
	if !present {
		return nil
	}
	p := types.Pubkey(k)
	return &p
}

// Pack encodes the mint into its 82-byte layout.
func (m *Mint) Pack() []byte {
	s := binarycodec.NewBinarySerializer(MintLen)
	s.WriteOptionKey(optKey(m.MintAuthority))
	s.WriteU64(m.Supply).WriteU8(m.Decimals).WriteBool(m.IsInitialized)
	s.WriteOptionKey(optKey(m.FreezeAuthority))
	return s.GetSink()
}

// UnpackMint decodes an initialized mint.
func UnpackMint(data []byte) (*Mint, error) {
	if len(data) != MintLen {
		return nil, fmt.Errorf("%w: mint has %d bytes", ErrInvalidLength, len(data))
	}
	p := binarycodec.NewBinaryParser(data)
	m := &Mint{}

	auth, ok, err := p.ReadOptionKey()
	if err != nil {
		return nil, err
	}
	m.MintAuthority = keyPtr(auth, ok)
	if m.Supply, err = p.ReadU64(); err != nil {
		return nil, err
	}
	if m.Decimals, err = p.ReadByte(); err != nil {
		return nil, err
	}
	if m.IsInitialized, err = p.ReadBool(); err != nil {
		return nil, err
	}
	freeze, ok, err := p.ReadOptionKey()
	if err != nil {
		return nil, err
	}
	m.FreezeAuthority = keyPtr(freeze, ok)

	if !m.IsInitialized {
		return nil, ErrNotInitialized
	}
	return m, nil
}

// Account is a holding account: the balance of one owner in one mint.
type Account struct {
	Mint            types.Pubkey
	Owner           types.Pubkey
	Amount          uint64
	Delegate        *types.Pubkey
	State           AccountState
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *types.Pubkey
}

// Pack encodes the account into its 165-byte layout.
func (a *Account) Pack() []byte {
	s := binarycodec.NewBinarySerializer(AccountLen)
	s.WriteBytes(a.Mint[:]).WriteBytes(a.Owner[:]).WriteU64(a.Amount)
	s.WriteOptionKey(optKey(a.Delegate))
	s.WriteU8(uint8(a.State))
	if a.IsNative != nil {
		s.WriteOptionU64(*a.IsNative, true)
	} else {
		s.WriteOptionU64(0, false)
	}
	s.WriteU64(a.DelegatedAmount)
	s.WriteOptionKey(optKey(a.CloseAuthority))
	return s.GetSink()
}

// UnpackAccount decodes an initialized holding account.
func UnpackAccount(data []byte) (*Account, error) {
	if len(data) != AccountLen {
		return nil, fmt.Errorf("%w: account has %d bytes", ErrInvalidLength, len(data))
	}
	p := binarycodec.NewBinaryParser(data)
	a := &Account{}

	mint, err := p.ReadKey()
	if err != nil {
		return nil, err
	}
	owner, err := p.ReadKey()
	if err != nil {
		return nil, err
	}
	a.Mint, a.Owner = mint, owner
	if a.Amount, err = p.ReadU64(); err != nil {
		return nil, err
	}
	delegate, ok, err := p.ReadOptionKey()
	if err != nil {
		return nil, err
	}
	a.Delegate = keyPtr(delegate, ok)
	state, err := p.ReadByte()
	if err != nil {
		return nil, err
	}
	a.State = AccountState(state)
	native, ok, err := p.ReadOptionU64()
	if err != nil {
		return nil, err
	}
	if ok {
		a.IsNative = &native
	}
	if a.DelegatedAmount, err = p.ReadU64(); err != nil {
		return nil, err
	}
	closeAuth, ok, err := p.ReadOptionKey()
	if err != nil {
		return nil, err
	}
	a.CloseAuthority = keyPtr(closeAuth, ok)

	if a.State == AccountUninitialized {
		return nil, ErrNotInitialized
	}
	return a, nil
}
