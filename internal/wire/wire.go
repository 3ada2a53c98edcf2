// Package wire provides alignment-agnostic little-endian byte codec
// primitives: load/store of 8/16/32/64-bit values and float/double
// bit-punning. Generated accessor code XORs the field default on both
// read and write, so this package stays default-agnostic.
package wire

import (
	"encoding/binary"
	"math"
)

// ReadUint8 returns the first byte of b.
func ReadUint8(b []byte) uint8 {
	return b[0]
}

// ReadUint16 decodes a little-endian 16-bit integer from b.
func ReadUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// ReadUint32 decodes a little-endian 32-bit integer from b.
func ReadUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// ReadUint64 decodes a little-endian 64-bit integer from b.
func ReadUint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// WriteUint8 stores v as the first byte of b.
func WriteUint8(b []byte, v uint8) {
	b[0] = v
}

// WriteUint16 encodes v into b as little-endian.
func WriteUint16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// WriteUint32 encodes v into b as little-endian.
func WriteUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// WriteUint64 encodes v into b as little-endian.
func WriteUint64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}

// Float32ToBits reinterprets f's bits as a uint32.
func Float32ToBits(f float32) uint32 {
	return math.Float32bits(f)
}

// BitsToFloat32 reinterprets u's bits as a float32.
func BitsToFloat32(u uint32) float32 {
	return math.Float32frombits(u)
}

// Float64ToBits reinterprets f's bits as a uint64.
func Float64ToBits(f float64) uint64 {
	return math.Float64bits(f)
}

// BitsToFloat64 reinterprets u's bits as a float64.
func BitsToFloat64(u uint64) float64 {
	return math.Float64frombits(u)
}
