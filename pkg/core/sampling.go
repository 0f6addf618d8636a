package core

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// IndexedSampler derives an independent PCG stream for every ray index, so
// the draws for index i are the same no matter which worker handles it.
type IndexedSampler struct {
	seed   uint64
	pcg    *rand.PCG
	random *rand.Rand
}

// NewIndexedSampler creates a sampler positioned at index 0 of the seed
func NewIndexedSampler(seed uint64) *IndexedSampler {
	pcg := rand.NewPCG(seed, 0)
	return &IndexedSampler{seed: seed, pcg: pcg, random: rand.New(pcg)}
}

// Reset rewinds the sampler to the start of the stream for index
func (s *IndexedSampler) Reset(index uint64) {
	s.pcg.Seed(s.seed, index)
}

// Get2D returns the next two values of the current stream in [0, 1)
func (s *IndexedSampler) Get2D() Vec2 {
	return NewVec2(s.random.Float64(), s.random.Float64())
}

// Scheme names an angular sampling scheme for source directions
type Scheme string

const (
	// SchemeBiasedPolar draws the polar and azimuth angles uniformly.
	// This over-samples the poles; it reproduces the historical output.
	SchemeBiasedPolar Scheme = "biased-polar"
	// SchemeUniformSphere draws directions uniformly over the sphere's surface.
	SchemeUniformSphere Scheme = "uniform-sphere"
)

// ParseScheme validates a scheme name
func ParseScheme(name string) (Scheme, error) {
	switch Scheme(name) {
	case SchemeBiasedPolar, SchemeUniformSphere:
		return Scheme(name), nil
	case "":
		return SchemeBiasedPolar, nil
	}
	return "", fmt.Errorf("unknown sampling scheme %q (want %q or %q)", name, SchemeBiasedPolar, SchemeUniformSphere)
}

// Direction maps a 2D sample in [0,1)² to a unit direction
func (s Scheme) Direction(sample Vec2) Vec3 {
	if s == SchemeUniformSphere {
		return SampleOnUnitSphere(sample)
	}
	return SampleBiasedPolar(sample)
}

// SampleBiasedPolar maps θ = π·u and φ = 2π·v to (sinθcosφ, sinθsinφ, cosθ)
func SampleBiasedPolar(sample Vec2) Vec3 {
	theta := math.Pi * sample.U
	phi := 2 * math.Pi * sample.V
	sinTheta := math.Sin(theta)
	return NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), math.Cos(theta))
}

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 2.0*sample.U - 1.0 // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.V
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}
