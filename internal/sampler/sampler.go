// Package sampler draws independent feature columns from configured
// probability distributions.
//
// Every draw goes through a single rand.Source, so two samplers built from
// the same seed and called in the same order produce identical columns.
package sampler

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidParameter is returned when a sampling primitive is asked for an
// impossible distribution (negative spread, inverted bounds, bad weights).
var ErrInvalidParameter = errors.New("invalid sampling parameter")

// probabilityTolerance bounds how far categorical weights may drift from 1.
const probabilityTolerance = 1e-6

// Sampler generates feature columns from one shared random source.
// It is not safe for concurrent use.
type Sampler struct {
	src rand.Source
	rng *rand.Rand
}

// New creates a Sampler drawing from src.
func New(src rand.Source) *Sampler {
	return &Sampler{src: src, rng: rand.New(src)}
}

// NewSeeded creates a Sampler backed by a PCG source seeded with seed.
func NewSeeded(seed uint64) *Sampler {
	return New(NewSource(seed))
}

// NewSource returns the PCG source used for seeded generation.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// RandomSeed draws a fresh seed from the runtime's random generator.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Source returns the underlying random source, so later pipeline stages can
// keep consuming the same stream.
func (s *Sampler) Source() rand.Source {
	return s.src
}

// BoundedNormal draws n values from N(mean, std) and clamps each into
// [min, max]. A large std relative to the range piles mass on the bounds.
func (s *Sampler) BoundedNormal(n int, mean, std, min, max float64) ([]float64, error) {
	if err := checkLen(n); err != nil {
		return nil, err
	}
	if std < 0 || !finite(std) {
		return nil, fmt.Errorf("%w: normal std must be non-negative and finite, got %v", ErrInvalidParameter, std)
	}
	if !finite(mean) || !finite(min) || !finite(max) {
		return nil, fmt.Errorf("%w: normal mean %v and bounds [%v, %v] must be finite", ErrInvalidParameter, mean, min, max)
	}
	if min > max {
		return nil, fmt.Errorf("%w: min %v exceeds max %v", ErrInvalidParameter, min, max)
	}

	dist := distuv.Normal{Mu: mean, Sigma: std, Src: s.src}
	out := make([]float64, n)
	for i := range out {
		out[i] = Clamp(dist.Rand(), min, max)
	}
	return out, nil
}

// LogNormal draws n positive values whose logarithm is N(mu, sigma).
func (s *Sampler) LogNormal(n int, mu, sigma float64) ([]float64, error) {
	if err := checkLen(n); err != nil {
		return nil, err
	}
	if sigma < 0 || !finite(sigma) {
		return nil, fmt.Errorf("%w: lognormal sigma must be non-negative and finite, got %v", ErrInvalidParameter, sigma)
	}
	if !finite(mu) {
		return nil, fmt.Errorf("%w: lognormal mu must be finite, got %v", ErrInvalidParameter, mu)
	}

	dist := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out, nil
}

// Categorical draws n labels from choices, where choice i is picked with
// probability probs[i]. probs must be parallel to choices and sum to 1.
func (s *Sampler) Categorical(n int, choices []string, probs []float64) ([]string, error) {
	if err := checkLen(n); err != nil {
		return nil, err
	}
	if err := CheckWeights(choices, probs); err != nil {
		return nil, err
	}

	dist := distuv.NewCategorical(probs, s.src)
	out := make([]string, n)
	for i := range out {
		out[i] = choices[int(dist.Rand())]
	}
	return out, nil
}

// DiscreteUniform draws n integers uniformly from the inclusive range [min, max].
// The range may hold at most math.MaxInt values.
func (s *Sampler) DiscreteUniform(n, min, max int) ([]int, error) {
	if err := checkLen(n); err != nil {
		return nil, err
	}
	span, err := IntSpan(min, max)
	if err != nil {
		return nil, err
	}

	out := make([]int, n)
	for i := range out {
		out[i] = min + s.rng.IntN(span)
	}
	return out, nil
}

// IntSpan returns the number of integers in [min, max]. It fails when the
// range is inverted or holds more values than an int can count.
func IntSpan(min, max int) (int, error) {
	if min > max {
		return 0, fmt.Errorf("%w: min %d exceeds max %d", ErrInvalidParameter, min, max)
	}
	// Two's complement subtraction in uint64 is exact for any min <= max.
	span := uint64(max) - uint64(min) + 1
	if span == 0 || span > math.MaxInt {
		return 0, fmt.Errorf("%w: range [%d, %d] holds too many values", ErrInvalidParameter, min, max)
	}
	return int(span), nil
}

// Poisson draws n non-negative counts with the given mean rate.
func (s *Sampler) Poisson(n int, rate float64) ([]int, error) {
	if err := checkLen(n); err != nil {
		return nil, err
	}
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: poisson rate must be non-negative and finite, got %v", ErrInvalidParameter, rate)
	}

	dist := distuv.Poisson{Lambda: rate, Src: s.src}
	out := make([]int, n)
	for i := range out {
		out[i] = int(dist.Rand())
	}
	return out, nil
}

// CheckWeights validates a categorical choice list against its probabilities.
func CheckWeights(choices []string, probs []float64) error {
	if len(choices) == 0 {
		return fmt.Errorf("%w: categorical needs at least one choice", ErrInvalidParameter)
	}
	if len(choices) != len(probs) {
		return fmt.Errorf("%w: %d choices but %d probabilities", ErrInvalidParameter, len(choices), len(probs))
	}
	var sum float64
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("%w: probability for %q must be non-negative, got %v", ErrInvalidParameter, choices[i], p)
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("%w: probabilities sum to %v, want 1", ErrInvalidParameter, sum)
	}
	return nil
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkLen(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: row count must be non-negative, got %d", ErrInvalidParameter, n)
	}
	return nil
}
