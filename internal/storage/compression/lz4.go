package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// maxBlockSize bounds the decoded size accepted from a length header.
const maxBlockSize = 10 << 20

// NoCompressor passes data through unchanged.
type NoCompressor struct{}

func (NoCompressor) Name() string { return "none" }

func (NoCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (NoCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// LZ4Compressor writes a uvarint of the decoded length followed by an LZ4
// block.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }

func (LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrIncompressible
	}

	out := make([]byte, binary.MaxVarintLen64+lz4.CompressBlockBound(len(data)))
	hdr := binary.PutUvarint(out, uint64(len(data)))

	n, err := lz4.CompressBlock(data, out[hdr:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 || hdr+n >= len(data) {
		return nil, ErrIncompressible
	}
	return out[:hdr+n], nil
}

func (LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	size, hdr := binary.Uvarint(data)
	if hdr <= 0 {
		return nil, errors.New("lz4: malformed length header")
	}
	if size > maxBlockSize {
		return nil, fmt.Errorf("lz4: decoded size %d exceeds limit", size)
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[hdr:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if uint64(n) != size {
		return nil, fmt.Errorf("lz4: decoded %d bytes, header says %d", n, size)
	}
	return out, nil
}
