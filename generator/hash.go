package generator

import "unicode/utf16"

// Hash mixes the UTF-16 code units of s into a 32-bit generator state.
//
// The accumulator starts from the unit count, folds every unit in with an odd
// multiplier and a 13-bit rotation, then runs a two-round avalanche. All
// arithmetic wraps at 32 bits, so the result matches the browser construction
// bit for bit.
func Hash(s string) uint32 {
	units := utf16.Encode([]rune(s))

	h := uint32(1779033703) ^ uint32(len(units))
	for _, c := range units {
		h = (h ^ uint32(c)) * 3432918353
		h = h<<13 | h>>19
	}

	h = (h ^ h>>16) * 2246822507
	h = (h ^ h>>13) * 3266489909
	return h ^ h>>16
}
