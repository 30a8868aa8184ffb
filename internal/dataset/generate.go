package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/tipgen/internal/config"
	"github.com/nvandessel/tipgen/internal/heuristic"
	"github.com/nvandessel/tipgen/internal/sampler"
)

// options holds per-call generation settings.
type options struct {
	rows    int
	rowsSet bool
	seed    *uint64
	src     rand.Source
	noise   func(rand.Source) heuristic.NoiseFunc
}

// Option customizes a single Generate call.
type Option func(*options)

// WithRows overrides the configured row count.
func WithRows(n int) Option {
	return func(o *options) {
		o.rows = n
		o.rowsSet = true
	}
}

// WithSeed makes the run reproducible, overriding any configured seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithSource draws every random value from src. It takes precedence over seeds.
func WithSource(src rand.Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithoutNoise disables the heuristic's noise term, making tip_percent a pure
// function of the sampled features.
func WithoutNoise() Option {
	return func(o *options) {
		o.noise = func(rand.Source) heuristic.NoiseFunc { return heuristic.ZeroNoise }
	}
}

// Result is a generated table plus the seed that produced it. Seed is set
// only when the caller supplied one; unseeded runs are not reproducible.
type Result struct {
	Table *Table
	Seed  *uint64
}

// Generate validates cfg, samples every feature, scores tips, and returns the
// assembled table. It returns either a complete table or an error; errors
// wrap config.ErrInvalidConfig or sampler.ErrInvalidParameter.
//
// Random values are consumed in a fixed order: distance, subtotal, wait
// time, weather, time of day, day of week, rating, item count, messages,
// then one noise draw per row.
func Generate(cfg config.GeneratorConfig, opts ...Option) (*Result, error) {
	o := options{
		rows: cfg.Rows,
		seed: cfg.Seed,
		noise: func(src rand.Source) heuristic.NoiseFunc {
			return heuristic.GaussianNoise(src, heuristic.NoiseStd)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.rowsSet {
		cfg.Rows = o.rows
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var seed *uint64
	src := o.src
	switch {
	case src != nil:
	case o.seed != nil:
		s := *o.seed
		seed = &s
		src = sampler.NewSource(s)
	default:
		src = sampler.NewSource(sampler.RandomSeed())
	}

	t, err := assemble(cfg, sampler.New(src), o.noise(src))
	if err != nil {
		return nil, err
	}
	return &Result{Table: t, Seed: seed}, nil
}

// assemble samples each column in the documented order and derives the tip columns.
func assemble(cfg config.GeneratorConfig, s *sampler.Sampler, noise heuristic.NoiseFunc) (*Table, error) {
	n := cfg.Rows
	t := &Table{}
	var err error

	if t.distance, err = s.BoundedNormal(n, cfg.Distance.Mean, cfg.Distance.Std, cfg.Distance.Min, cfg.Distance.Max); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColDistanceMiles, err)
	}
	if t.subtotal, err = s.LogNormal(n, cfg.Subtotal.LogMean, cfg.Subtotal.LogSigma); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColOrderSubtotal, err)
	}
	if t.wait, err = s.BoundedNormal(n, cfg.WaitTime.Mean, cfg.WaitTime.Std, cfg.WaitTime.Min, cfg.WaitTime.Max); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColWaitTimeMinutes, err)
	}
	if t.weather, err = s.Categorical(n, cfg.Weather.Choices, cfg.Weather.Probs); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColWeather, err)
	}
	if t.timeOfDay, err = s.Categorical(n, cfg.TimeOfDay.Choices, cfg.TimeOfDay.Probs); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColTimeOfDay, err)
	}
	if t.dayOfWeek, err = s.Categorical(n, cfg.DayOfWeek.Choices, cfg.DayOfWeek.Probs); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColDayOfWeek, err)
	}
	if t.rating, err = s.DiscreteUniform(n, cfg.Rating.Min, cfg.Rating.Max); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColCommunicationRating, err)
	}
	if t.items, err = s.Poisson(n, cfg.ItemCount.Rate); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColItemCount, err)
	}
	if t.messages, err = s.Poisson(n, cfg.MessagesSent.Rate); err != nil {
		return nil, fmt.Errorf("sampling %s: %w", ColMessagesSent, err)
	}

	features := make([]heuristic.Features, n)
	for i := range features {
		features[i] = t.features(i)
	}
	t.tipPercent = heuristic.Score(features, noise)

	t.tipAmount = make([]float64, n)
	for i := range t.tipAmount {
		t.tipAmount[i] = heuristic.TipAmount(t.subtotal[i], t.tipPercent[i])
	}
	return t, nil
}
