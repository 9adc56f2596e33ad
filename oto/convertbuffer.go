package oto

import (
	"encoding/binary"
	"math"
)

// floatBufferToBytesLE converts a []float32 buffer to little-endian float32
// bytes, the format the oto player consumes. Appends to recycled and returns
// it, so callers can reuse one byte buffer across calls.
func floatBufferToBytesLE(buffer []float32, recycled []byte) []byte {
	for _, v := range buffer {
		recycled = binary.LittleEndian.AppendUint32(recycled, math.Float32bits(v))
	}
	return recycled
}
