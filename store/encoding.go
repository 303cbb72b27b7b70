package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github/itish2003/pdfqa/models"
)

// EncodeVector packs vec as little-endian IEEE-754 float32 values, 4*len(vec) bytes,
// no length prefix. The dimension is stored in its own column.
func EncodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeVector reverses EncodeVector. The blob must be exactly 4*dim bytes.
func DecodeVector(b []byte, dim int) ([]float32, error) {
	if dim < 0 || len(b) != dim*4 {
		return nil, fmt.Errorf("%w: vector blob is %d bytes, want %d for dim %d", models.ErrStorage, len(b), dim*4, dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// Float32s narrows a higher precision embedding once, before it is written.
func Float32s(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
