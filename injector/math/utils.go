package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// AlignUp rounds `v` up to the next multiple of `pad`.
// `pad` must be a power of two.
func AlignUp[T constraints.Integer](v, pad T) T {
	return (v + pad - 1) &^ (pad - 1)
}
