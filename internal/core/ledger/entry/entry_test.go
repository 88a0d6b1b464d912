package entry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/types"
)

func TestCodecRoundTrip(t *testing.T) {
	accounts := map[string]*Account{
		"empty data": {Lamports: 890880, Owner: types.SystemProgramID},
		"token data": {Lamports: 2039280, Owner: types.TokenProgramID, Data: make([]byte, 165)},
		"executable": {Lamports: 1, Owner: types.EscrowProgramID, Executable: true, Data: []byte{1, 2, 3}},
		"repetitive": {Lamports: 7, Owner: types.VaultProgramID, Data: bytes.Repeat([]byte{0xaa, 0xbb}, 300)},
	}

	for _, compressor := range []string{"none", "lz4"} {
		c, err := NewCodec(compressor)
		require.NoError(t, err)

		for name, acc := range accounts {
			t.Run(compressor+"/"+name, func(t *testing.T) {
				raw, err := c.Encode(acc)
				require.NoError(t, err)

				got, err := c.Decode(raw)
				require.NoError(t, err)
				assert.True(t, acc.Equal(got), "got %+v", got)
			})
		}
	}
}

func TestCodecCompressesRepetitiveData(t *testing.T) {
	plain, err := NewCodec("none")
	require.NoError(t, err)
	packed, err := NewCodec("lz4")
	require.NoError(t, err)

	acc := &Account{Owner: types.TokenProgramID, Data: make([]byte, 4096)}
	a, err := plain.Encode(acc)
	require.NoError(t, err)
	b, err := packed.Encode(acc)
	require.NoError(t, err)
	assert.Less(t, len(b), len(a))

	// Either codec reads either envelope.
	got, err := plain.Decode(b)
	require.NoError(t, err)
	assert.True(t, acc.Equal(got))
}

func TestCodecRejectsMalformed(t *testing.T) {
	c, err := NewCodec("none")
	require.NoError(t, err)

	for _, raw := range [][]byte{nil, {9, 1, 2}, {tagRaw, 0xc1}} {
		_, err := c.Decode(raw)
		require.ErrorIs(t, err, ErrMalformedEnvelope)
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := &Account{Lamports: 5, Data: []byte{1, 2}}
	b := a.Clone()
	b.Data[0] = 9
	b.Lamports = 6

	assert.Equal(t, byte(1), a.Data[0])
	assert.EqualValues(t, 5, a.Lamports)
	assert.Nil(t, (*Account)(nil).Clone())
	assert.True(t, (*Account)(nil).Equal(nil))
	assert.False(t, a.Equal(nil))
	assert.True(t, (&Account{}).Equal(&Account{Data: []byte{}}))
}
