package oto

import (
	"encoding/binary"
	"math"
)

// MonoToStereoFloat32LE appends mono to dst as interleaved stereo
// little-endian float32 frames, duplicating every sample to both channels.
// Samples are clipped to [-1, 1] and NaNs are written as silence.
func MonoToStereoFloat32LE(dst []byte, mono []float32) []byte {
	for _, v := range mono {
		switch {
		case math.IsNaN(float64(v)):
			v = 0
		case v < -1:
			v = -1
		case v > 1:
			v = 1
		}
		bits := math.Float32bits(v)
		dst = binary.LittleEndian.AppendUint32(dst, bits)
		dst = binary.LittleEndian.AppendUint32(dst, bits)
	}
	return dst
}
