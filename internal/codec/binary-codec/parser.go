package binarycodec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when a read runs past the end of the input.
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrInvalidOptionTag is returned for a COption tag other than 0 or 1.
	ErrInvalidOptionTag = errors.New("invalid option tag")

	// ErrInvalidBool is returned for a boolean byte other than 0 or 1.
	ErrInvalidBool = errors.New("invalid bool")
)

// BinaryParser reads fixed-width little-endian fields from a byte slice.
type BinaryParser struct {
	data []byte
	pos  int
}

func NewBinaryParser(data []byte) *BinaryParser {
	return &BinaryParser{data: data}
}

// HasMore reports whether unread bytes remain.
func (p *BinaryParser) HasMore() bool {
	return p.pos < len(p.data)
}

// Remaining returns the number of unread bytes.
func (p *BinaryParser) Remaining() int {
	return len(p.data) - p.pos
}

// ReadBytes returns the next n bytes. The slice aliases the input.
func (p *BinaryParser) ReadBytes(n int) ([]byte, error) {
	if n < 0 || p.Remaining() < n {
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", n, p.pos, ErrUnexpectedEOF)
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

func (p *BinaryParser) ReadByte() (byte, error) {
	b, err := p.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *BinaryParser) ReadBool() (bool, error) {
	b, err := p.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrInvalidBool, b)
	}
}

func (p *BinaryParser) ReadU32() (uint32, error) {
	b, err := p.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (p *BinaryParser) ReadU64() (uint64, error) {
	b, err := p.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (p *BinaryParser) ReadKey() ([32]byte, error) {
	var key [32]byte
	b, err := p.ReadBytes(32)
	if err != nil {
		return key, err
	}
	copy(key[:], b)
	return key, nil
}

func (p *BinaryParser) ReadDiscriminator() ([DiscriminatorLength]byte, error) {
	var d [DiscriminatorLength]byte
	b, err := p.ReadBytes(DiscriminatorLength)
	if err != nil {
		return d, err
	}
	copy(d[:], b)
	return d, nil
}

func (p *BinaryParser) readOptionTag() (bool, error) {
	tag, err := p.ReadU32()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrInvalidOptionTag, tag)
	}
}

// ReadOptionKey reads a COption<[32]byte>.
func (p *BinaryParser) ReadOptionKey() ([32]byte, bool, error) {
	present, err := p.readOptionTag()
	if err != nil {
		return [32]byte{}, false, err
	}
	key, err := p.ReadKey()
	if err != nil {
		return [32]byte{}, false, err
	}
	if !present {
		return [32]byte{}, false, nil
	}
	return key, true, nil
}

// ReadOptionU64 reads a COption<u64>.
func (p *BinaryParser) ReadOptionU64() (uint64, bool, error) {
	present, err := p.readOptionTag()
	if err != nil {
		return 0, false, err
	}
	v, err := p.ReadU64()
	if err != nil {
		return 0, false, err
	}
	if !present {
		return 0, false, nil
	}
	return v, true, nil
}
