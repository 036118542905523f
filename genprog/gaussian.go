package genprog

import (
	"math"
	"math/rand"
)

// NormalDistribution draws samples from a normal distribution using the supplied random source
type NormalDistribution interface {
	Next(rng *rand.Rand, mean, stdDev float64) float64
}

// BoxMuller samples a normal distribution through the Box-Muller transform of two uniform draws
type BoxMuller struct{}

func (BoxMuller) Next(rng *rand.Rand, mean, stdDev float64) float64 {
	// Keep u1 in (0, 1] so the logarithm stays finite
	u1 := 1 - rng.Float64()
	u2 := rng.Float64()
	standardNormal := math.Sqrt(-2*math.Log(u1)) * math.Sin(2*math.Pi*u2)
	return mean + stdDev*standardNormal
}
