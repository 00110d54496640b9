package types

import "math"

// SatAdd64 adds without wrapping; sums cap at MaxUint64.
func SatAdd64(a, b uint64) uint64 {
	if b > math.MaxUint64-a {
		return math.MaxUint64
	}
	return a + b
}

// SatAdd32 adds without wrapping; sums cap at MaxUint32.
func SatAdd32(a, b uint32) uint32 {
	if b > math.MaxUint32-a {
		return math.MaxUint32
	}
	return a + b
}
