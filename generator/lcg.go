package generator

import "fmt"

// LCG constants
const (
	Multiplier = 48271
	Modulus    = 1<<31 - 1
)

// Variant selects the step function used by a Generator
type Variant string

const (
	// VariantLehmer is the multiplicative LCG over the Mersenne prime 2^31-1
	VariantLehmer Variant = "lehmer"
	// VariantMasked wraps the multiply at 32 bits and keeps the low 31 bits,
	// which is what performances recorded in a browser used
	VariantMasked Variant = "masked"
)

// ParseVariant maps a config string to a Variant. Empty means VariantLehmer.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", VariantLehmer:
		return VariantLehmer, nil
	case VariantMasked:
		return VariantMasked, nil
	}
	return "", fmt.Errorf("unknown generator variant %q", s)
}

// StepFunc advances a state and returns the drawn float in [0,1)
type StepFunc func(state uint32) (float64, uint32)

// LehmerStep computes state' = 48271*state mod (2^31-1), output state'/2^31.
func LehmerStep(state uint32) (float64, uint32) {
	next := uint32(uint64(state) * Multiplier % Modulus)
	return float64(next) / (1 << 31), next
}

// MaskedStep computes state' = 48271*state mod 2^32, output (state' & (2^31-1))/2^31.
func MaskedStep(state uint32) (float64, uint32) {
	next := state * Multiplier
	return float64(next&Modulus) / (1 << 31), next
}

func (v Variant) step() StepFunc {
	if v == VariantMasked {
		return MaskedStep
	}
	return LehmerStep
}
