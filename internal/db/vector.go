package db

import (
	"encoding/binary"
	"math"
)

// VectorToBytes encodes a float32 vector as the little-endian blob the FT
// vector index stores and searches.
func VectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
