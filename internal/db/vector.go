package db

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VectorToBlob encodes a vector as little-endian FLOAT32, the layout FT vector fields expect.
func VectorToBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// BlobToVector decodes a FLOAT32 blob back into a vector.
func BlobToVector(blob string) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob: len=%d (not multiple of 4)", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(blob[i*4 : i*4+4])))
	}
	return v, nil
}
