package addresscodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWellKnownPrograms(t *testing.T) {
	tt := []struct {
		description string
		input       string
		firstByte   byte
	}{
		{description: "system program is all zeros", input: "11111111111111111111111111111111", firstByte: 0x00},
		{description: "token program", input: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", firstByte: 0x06},
		{description: "associated token program", input: "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL", firstByte: 0x8c},
	}

	for _, tc := range tt {
		t.Run(tc.description, func(t *testing.T) {
			got, err := Decode(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.firstByte, got[0])
			assert.Equal(t, tc.input, Encode(got[:]))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("")
	require.ErrorIs(t, err, ErrEmptyAddress)

	_, err = Decode("0OIl")
	require.Error(t, err)

	_, err = Decode("1111")
	require.ErrorIs(t, err, ErrInvalidLength)

	assert.False(t, IsValid("abc"))
	assert.True(t, IsValid("677U8Q9nAyas6JaKkercgVifkcwpuZrP6RUimosfKaHZ"))
}
