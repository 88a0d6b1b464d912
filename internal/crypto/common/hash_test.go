package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256(t *testing.T) {
	tt := []struct {
		description string
		input       [][]byte
		expected    string
	}{
		{
			description: "empty input",
			input:       nil,
			expected:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			description: "split input hashes like the joined input",
			input:       [][]byte{[]byte("a"), []byte("bc")},
			expected:    "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tc := range tt {
		t.Run(tc.description, func(t *testing.T) {
			got := Sha256(tc.input...)
			require.Equal(t, tc.expected, hex.EncodeToString(got[:]))
		})
	}
}

func TestDiscriminator(t *testing.T) {
	require.Equal(t, [8]byte{138, 227, 232, 77, 223, 166, 96, 197}, Discriminator("global", "make"))
	require.Equal(t, [8]byte{149, 226, 52, 104, 6, 142, 230, 39}, Discriminator("global", "take"))
	require.Equal(t, [8]byte{2, 96, 183, 251, 63, 208, 46, 46}, Discriminator("global", "refund"))
	require.Equal(t, [8]byte{31, 213, 123, 187, 186, 22, 218, 155}, Discriminator("account", "Escrow"))
}
