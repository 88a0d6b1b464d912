// Package binarycodec reads and writes the fixed-width little-endian layouts
// used by instruction payloads and account data.
package binarycodec

import (
	"encoding/binary"
)

// DiscriminatorLength is the size of an instruction or account tag.
const DiscriminatorLength = 8

// BinarySerializer appends fixed-width little-endian fields to a sink.
type BinarySerializer struct {
	sink []byte
}

// NewBinarySerializer returns a serializer with capacity for size bytes.
func NewBinarySerializer(size int) *BinarySerializer {
	return &BinarySerializer{sink: make([]byte, 0, size)}
}

func (s *BinarySerializer) WriteU8(v uint8) *BinarySerializer {
	s.sink = append(s.sink, v)
	return s
}

func (s *BinarySerializer) WriteBool(v bool) *BinarySerializer {
	if v {
		return s.WriteU8(1)
	}
	return s.WriteU8(0)
}

func (s *BinarySerializer) WriteU32(v uint32) *BinarySerializer {
	s.sink = binary.LittleEndian.AppendUint32(s.sink, v)
	return s
}

func (s *BinarySerializer) WriteU64(v uint64) *BinarySerializer {
	s.sink = binary.LittleEndian.AppendUint64(s.sink, v)
	return s
}

// WriteBytes appends raw bytes without a length prefix.
func (s *BinarySerializer) WriteBytes(b []byte) *BinarySerializer {
	s.sink = append(s.sink, b...)
	return s
}

func (s *BinarySerializer) WriteDiscriminator(d [DiscriminatorLength]byte) *BinarySerializer {
	return s.WriteBytes(d[:])
}

// WriteOptionKey writes a COption<[32]byte>: a u32 tag (0 or 1) followed by
// 32 bytes, zeroed when absent.
func (s *BinarySerializer) WriteOptionKey(key [32]byte, present bool) *BinarySerializer {
	if !present {
		s.WriteU32(0)
		var zero [32]byte
		return s.WriteBytes(zero[:])
	}
	s.WriteU32(1)
	return s.WriteBytes(key[:])
}

// WriteOptionU64 writes a COption<u64>: u32 tag then 8 bytes.
func (s *BinarySerializer) WriteOptionU64(v uint64, present bool) *BinarySerializer {
	if !present {
		return s.WriteU32(0).WriteU64(0)
	}
	return s.WriteU32(1).WriteU64(v)
}

// GetSink returns the bytes written so far.
func (s *BinarySerializer) GetSink() []byte {
	return s.sink
}
