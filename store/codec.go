// SPDX-License-Identifier: MIT
// Package: laso/store
//
// codec.go — on-disk record of one basis vector.
//
// Record layout (little-endian):
//
//	[codec uint8][raw length uint32][payload...]
//
// raw length is the byte count of the packed float64 vector (8 per entry).
// When compression does not shrink the payload below 90% of the raw size the
// record falls back to CodecNone, so a record always says how to read itself.

package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression of stored vectors.
type Codec uint8

const (
	// CodecNone stores raw float64 bits.
	CodecNone Codec = iota
	// CodecLZ4 uses LZ4 block compression (fast).
	CodecLZ4
	// CodecZstd uses Zstandard (better ratio).
	CodecZstd
)

// String implements fmt.Stringer.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps "none", "lz4" and "zstd" to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("store.ParseCodec(%q): %w", s, ErrUnknownCodec)
	}
}

const (
	headerSize      = 5
	worthCompressed = 0.9
)

var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func getEncoder() *zstd.Encoder {
	if v := zstdEncoders.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)) // nil writer never fails

	return enc
}

func getDecoder() *zstd.Decoder {
	if v := zstdDecoders.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)

	return dec
}

// packFloats appends the little-endian bits of v to dst.
func packFloats(dst []byte, v []float64) []byte {
	var i int
	for i = range v {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v[i]))
	}

	return dst
}

// encodeRecord appends the record of v to dst using codec c.
// scratch is reused for the packed vector and returned grown.
// Complexity: O(len(v)) plus the codec.
func encodeRecord(dst, scratch []byte, v []float64, c Codec) ([]byte, []byte, error) {
	var (
		raw     []byte
		payload []byte
		n       int
		err     error
	)
	raw = packFloats(scratch[:0], v)

	switch c {
	case CodecNone:
	case CodecLZ4:
		payload = make([]byte, lz4.CompressBlockBound(len(raw)))
		if n, err = lz4.CompressBlock(raw, payload, nil); err != nil {
			return dst, raw, fmt.Errorf("store: lz4 compress: %w", err)
		}
		payload = payload[:n] // n == 0: incompressible
	case CodecZstd:
		enc := getEncoder()
		payload = enc.EncodeAll(raw, nil)
		zstdEncoders.Put(enc)
	default:
		return dst, raw, fmt.Errorf("store: encode with %v: %w", c, ErrUnknownCodec)
	}
	if c != CodecNone && (len(payload) == 0 || float64(len(payload)) > float64(len(raw))*worthCompressed) {
		c, payload = CodecNone, nil
	}
	if c == CodecNone {
		payload = raw
	}

	dst = append(dst, byte(c))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(raw)))
	dst = append(dst, payload...)

	return dst, raw, nil
}

// decodeRecord fills v from rec. scratch receives the decompressed bytes.
// Complexity: O(len(v)) plus the codec.
func decodeRecord(v []float64, rec, scratch []byte) ([]byte, error) {
	var (
		c       Codec
		rawLen  int
		payload []byte
		raw     []byte
		n, i    int
		err     error
	)
	if len(rec) < headerSize {
		return scratch, fmt.Errorf("record of %d bytes: %w", len(rec), ErrCorrupt)
	}
	c = Codec(rec[0])
	rawLen = int(binary.LittleEndian.Uint32(rec[1:headerSize]))
	payload = rec[headerSize:]
	if rawLen != 8*len(v) {
		return scratch, fmt.Errorf("record holds %d values, want %d: %w", rawLen/8, len(v), ErrLengthMismatch)
	}

	switch c {
	case CodecNone:
		raw = payload
	case CodecLZ4:
		raw = grow(scratch, rawLen)
		if n, err = lz4.UncompressBlock(payload, raw); err != nil {
			return raw, fmt.Errorf("lz4: %v: %w", err, ErrCorrupt)
		}
		raw = raw[:n]
	case CodecZstd:
		dec := getDecoder()
		raw, err = dec.DecodeAll(payload, scratch[:0])
		zstdDecoders.Put(dec)
		if err != nil {
			return raw, fmt.Errorf("zstd: %v: %w", err, ErrCorrupt)
		}
	default:
		return scratch, fmt.Errorf("codec byte %d: %w", uint8(c), ErrUnknownCodec)
	}
	if len(raw) != rawLen {
		return raw, fmt.Errorf("decoded %d bytes, header says %d: %w", len(raw), rawLen, ErrCorrupt)
	}

	for i = range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	if c == CodecNone {
		return scratch, nil
	}

	return raw, nil
}

// grow returns b resliced (or reallocated) to length n.
func grow(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}

	return b[:n]
}
