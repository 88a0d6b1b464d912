package binarycodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializerLittleEndian(t *testing.T) {
	out := NewBinarySerializer(0).
		WriteU8(0xab).
		WriteU32(1).
		WriteU64(100).
		GetSink()

	require.Equal(t, []byte{
		0xab,
		0x01, 0x00, 0x00, 0x00,
		0x64, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, out)
}

func TestOptionLayout(t *testing.T) {
	key := [32]byte{1, 2, 3}

	some := NewBinarySerializer(36).WriteOptionKey(key, true).GetSink()
	require.Len(t, some, 36)
	assert.Equal(t, []byte{1, 0, 0, 0}, some[:4])

	none := NewBinarySerializer(36).WriteOptionKey(key, false).GetSink()
	require.Len(t, none, 36)
	assert.Equal(t, make([]byte, 36), none)

	p := NewBinaryParser(append(some, none...))
	got, ok, err := p.ReadOptionKey()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, key, got)

	_, ok, err = p.ReadOptionKey()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, p.HasMore())
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(p *BinaryParser) error
		want error
	}{
		{
			name: "short u64",
			data: []byte{1, 2, 3},
			read: func(p *BinaryParser) error { _, err := p.ReadU64(); return err },
			want: ErrUnexpectedEOF,
		},
		{
			name: "bad option tag",
			data: append([]byte{2, 0, 0, 0}, make([]byte, 8)...),
			read: func(p *BinaryParser) error { _, _, err := p.ReadOptionU64(); return err },
			want: ErrInvalidOptionTag,
		},
		{
			name: "bad bool",
			data: []byte{7},
			read: func(p *BinaryParser) error { _, err := p.ReadBool(); return err },
			want: ErrInvalidBool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewBinaryParser(tt.data))
			require.ErrorIs(t, err, tt.want)
		})
	}
}
