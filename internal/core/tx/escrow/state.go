package escrow

import (
	"errors"
	"fmt"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// RecordLen is the packed size of a Record, discriminator included.
const RecordLen = 8 + 8 + 32 + 32 + 32 + 8 + 8 + 1

// RecordDiscriminator prefixes every record's data.
var RecordDiscriminator = crypto.Discriminator("account", "Escrow")

var (
	ErrInvalidRecordLength = errors.New("escrow: invalid record length")
	ErrNotARecord          = errors.New("escrow: account is not an escrow record")
)

// Record is the on-ledger state of an open escrow. It lives at the address
// derived from (Maker, Seed) and is never partially updated.
type Record struct {
	Seed    uint64
	Maker   types.Pubkey
	MintA   types.Pubkey
	MintB   types.Pubkey
	Deposit uint64
	Receive uint64
	Bump    uint8
}

// Pack encodes the record.
func (r *Record) Pack() []byte {
	return binarycodec.NewBinarySerializer(RecordLen).
		WriteDiscriminator(RecordDiscriminator).
		WriteU64(r.Seed).
		WriteBytes(r.Maker[:]).
		WriteBytes(r.MintA[:]).
		WriteBytes(r.MintB[:]).
		WriteU64(r.Deposit).
		WriteU64(r.Receive).
		WriteU8(r.Bump).
		GetSink()
}

// UnpackRecord decodes a record.
func UnpackRecord(data []byte) (*Record, error) {
	if len(data) != RecordLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidRecordLength, len(data))
	}
	p := binarycodec.NewBinaryParser(data)
	disc, err := p.ReadDiscriminator()
	if err != nil {
		return nil, err
	}
	if disc != RecordDiscriminator {
		return nil, ErrNotARecord
	}

	r := &Record{}
	if r.Seed, err = p.ReadU64(); err != nil {
		return nil, err
	}
	keys := []*types.Pubkey{&r.Maker, &r.MintA, &r.MintB}
	for _, k := range keys {
		b, err := p.ReadKey()
		if err != nil {
			return nil, err
		}
		*k = b
	}
	if r.Deposit, err = p.ReadU64(); err != nil {
		return nil, err
	}
	if r.Receive, err = p.ReadU64(); err != nil {
		return nil, err
	}
	if r.Bump, err = p.ReadByte(); err != nil {
		return nil, err
	}
	return r, nil
}

// Seeds returns the full signer seeds of the record, bump included.
func (r *Record) Seeds() [][]byte {
	return keylet.WithBump(keylet.EscrowSeeds(r.Maker, r.Seed), r.Bump)
}
