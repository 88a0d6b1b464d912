package entry

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goEscrowd/internal/storage/compression"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Envelope tags written as the first byte of a persisted account.
const (
	tagRaw byte = 0
	tagLZ4 byte = 1
)

// ErrMalformedEnvelope is returned when persisted bytes cannot be decoded.
var ErrMalformedEnvelope = errors.New("malformed account envelope")

// wireAccount is the msgpack form of Account.
type wireAccount struct {
	_struct    struct{} `codec:",toarray"`
	Lamports   uint64
	Owner      []byte
	Executable bool
	Data       []byte
}

// Codec encodes accounts as msgpack, optionally LZ4-compressed.
type Codec struct {
	handle     *codec.MsgpackHandle
	compressor compression.Compressor
}

// NewCodec returns a codec using the named compressor ("none" or "lz4").
func NewCodec(compressor string) (*Codec, error) {
	c, err := compression.Get(compressor)
	if err != nil {
		return nil, err
	}
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	return &Codec{handle: h, compressor: c}, nil
}

// Encode serializes a.
func (c *Codec) Encode(a *Account) ([]byte, error) {
	w := wireAccount{
		Lamports:   a.Lamports,
		Owner:      a.Owner[:],
		Executable: a.Executable,
		Data:       a.Data,
	}

	var raw []byte
	if err := codec.NewEncoderBytes(&raw, c.handle).Encode(&w); err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}

	if c.compressor.Name() == "lz4" {
		packed, err := c.compressor.Compress(raw)
		switch {
		case err == nil:
			return append([]byte{tagLZ4}, packed...), nil
		case !errors.Is(err, compression.ErrIncompressible):
			return nil, err
		}
	}
	return append([]byte{tagRaw}, raw...), nil
}

// Decode parses bytes produced by Encode. Either tag is accepted regardless
// of the configured compressor, so the setting can change between runs.
func (c *Codec) Decode(b []byte) (*Account, error) {
	if len(b) == 0 {
		return nil, ErrMalformedEnvelope
	}

	raw := b[1:]
	switch b[0] {
	case tagRaw:
	case tagLZ4:
		var err error
		raw, err = compression.LZ4Compressor{}.Decompress(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrMalformedEnvelope, b[0])
	}

	var w wireAccount
	if err := codec.NewDecoderBytes(raw, c.handle).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(w.Owner) != len(types.Pubkey{}) {
		return nil, fmt.Errorf("%w: owner is %d bytes", ErrMalformedEnvelope, len(w.Owner))
	}

	a := &Account{
		Lamports:   w.Lamports,
		Executable: w.Executable,
		Data:       w.Data,
	}
	copy(a.Owner[:], w.Owner)
	return a, nil
}
