package generator

import (
	"math/rand"
	"strconv"
)

// Generator is a seeded pseudo-random float stream. It is not safe for
// concurrent use; callers serialise draws.
type Generator struct {
	variant Variant
	step    StepFunc
	state   uint32
	draws   uint64
}

// New creates an unseeded generator using the given variant
func New(v Variant) *Generator {
	if v == "" {
		v = VariantLehmer
	}
	g := &Generator{variant: v, step: v.step()}
	g.Seed("")
	return g
}

// Seed resets the generator from a seed string and returns the initial state.
// The first draw after seeding is consumed and thrown away.
func (g *Generator) Seed(seed string) uint32 {
	g.state = Hash(seed)
	if g.variant == VariantLehmer && g.state%Modulus == 0 {
		// zero is a fixed point of the Lehmer step
		g.state = 1
	}
	g.draws = 0
	initial := g.state
	g.Float64()
	return initial
}

// Float64 draws the next value in [0,1)
func (g *Generator) Float64() float64 {
	var x float64
	x, g.state = g.step(g.state)
	g.draws++
	if x >= 1 {
		x = 0
	}
	return x
}

// Intn draws a uniform index in [0,n). n must be positive.
func (g *Generator) Intn(n int) int {
	i := int(g.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Draws returns how many values were drawn since the last Seed, including the
// discarded one
func (g *Generator) Draws() uint64 { return g.draws }

// EntropySource synthesises seed strings when the caller supplies none
type EntropySource interface {
	RandomSeedString() string
}

// SystemEntropy draws a uniform 32-bit integer and formats it in decimal
type SystemEntropy struct{}

// RandomSeedString implements EntropySource
func (SystemEntropy) RandomSeedString() string {
	return strconv.FormatUint(uint64(rand.Uint32()), 10)
}

// ResolveSeed returns seed unchanged, or a synthesised seed when it is empty
func ResolveSeed(seed string, src EntropySource) string {
	if seed != "" {
		return seed
	}
	if src == nil {
		src = SystemEntropy{}
	}
	return src.RandomSeedString()
}
