// Package rbtree provides an order-statistics red-black tree whose nodes live
// in an arena allocator. Idle arenas can be hibernated: their link columns are
// LZ4-compressed in memory until the next Boot.
package rbtree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// ErrColumnSize is returned when a decompressed column does not match the expected length.
var ErrColumnSize = errors.New("decompressed column size mismatch")

// CompressUInt32Slice compresses a slice of uint32-s with LZ4.
// The first byte tells whether the rest is an LZ4 block (1) or the raw
// little-endian bytes of incompressible input (0).
func CompressUInt32Slice(data []uint32) ([]byte, error) {
	raw := make([]byte, len(data)*uint32ByteSize)

	for idx, val := range data {
		binary.LittleEndian.PutUint32(raw[idx*uint32ByteSize:], val)
	}

	var compressor lz4.Compressor

	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))

	written, err := compressor.CompressBlock(raw, compressed)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	if written == 0 && len(raw) > 0 {
		// lz4 reports 0 for incompressible blocks; keep the raw bytes behind a marker.
		return append([]byte{0}, raw...), nil
	}

	return append([]byte{1}, compressed[:written]...), nil
}

// DecompressUInt32Slice decompresses a slice of uint32-s previously compressed with
// CompressUInt32Slice. `result` must be preallocated to the original length.
func DecompressUInt32Slice(data []byte, result []uint32) error {
	if len(result) == 0 {
		return nil
	}

	if len(data) == 0 {
		return fmt.Errorf("%w: empty input for %d values", ErrColumnSize, len(result))
	}

	raw := data[1:]

	if data[0] == 1 {
		raw = make([]byte, len(result)*uint32ByteSize)

		read, err := lz4.UncompressBlock(data[1:], raw)
		if err != nil {
			return fmt.Errorf("lz4 uncompress: %w", err)
		}

		raw = raw[:read]
	}

	if len(raw) != len(result)*uint32ByteSize {
		return fmt.Errorf("%w: %d bytes instead of %d", ErrColumnSize, len(raw), len(result)*uint32ByteSize)
	}

	for idx := range result {
		result[idx] = binary.LittleEndian.Uint32(raw[idx*uint32ByteSize:])
	}

	return nil
}

// DeltaEncodeUInt32Slice replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged.
func DeltaEncodeUInt32Slice(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecodeUInt32Slice performs a prefix-sum to restore values produced by
// DeltaEncodeUInt32Slice, in place.
func DeltaDecodeUInt32Slice(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
