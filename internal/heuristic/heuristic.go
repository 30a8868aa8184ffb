// Package heuristic maps one simulated order's features to a tip percentage.
//
// The score is an additive baseline plus adjustments, evaluated in a fixed
// order so that floating-point results are stable across implementations:
//
//  1. baseline 15%
//  2. small order (subtotal < $15): +4
//  3. large order (subtotal > $40): +2
//  4. rain +2, snow +3
//  5. +0.6 per mile beyond 4
//  6. -0.3 per minute of wait beyond 12
//  7. night +1, morning -0.5
//  8. Fri/Sat/Sun +0.8
//  9. +0.8 per star above a neutral 3 (negative below)
//  10. +0.25 per item beyond 2
//  11. +0.4 per message, capped at 3 messages
//  12. Gaussian noise, mean 0, std 3
//  13. clip to [0, 40]
package heuristic

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Scoring constants.
const (
	Baseline = 15.0

	SmallOrderThreshold = 15.0
	SmallOrderBonus     = 4.0
	LargeOrderThreshold = 40.0
	LargeOrderBonus     = 2.0

	RainBonus = 2.0
	SnowBonus = 3.0

	FreeDistanceMiles = 4.0
	PerExtraMile      = 0.6

	ExpectedWaitMinutes = 12.0
	PerExtraWaitMinute  = 0.3

	NightBonus     = 1.0
	MorningPenalty = 0.5
	WeekendBonus   = 0.8
	NeutralRating  = 3
	PerRatingStep  = 0.8
	FreeItems      = 2
	PerExtraItem   = 0.25
	MessageCap     = 3
	PerMessage     = 0.4
	NoiseStd       = 3.0
	MinTipPercent  = 0.0
	MaxTipPercent  = 40.0
)

// Features is one order's sampled inputs to the heuristic.
type Features struct {
	DistanceMiles       float64 `json:"distance_miles"`
	OrderSubtotal       float64 `json:"order_subtotal"`
	WaitTimeMinutes     float64 `json:"wait_time_minutes"`
	Weather             string  `json:"weather"`
	TimeOfDay           string  `json:"time_of_day"`
	DayOfWeek           string  `json:"day_of_week"`
	CommunicationRating int     `json:"communication_rating"`
	ItemCount           int     `json:"item_count"`
	MessagesSent        int     `json:"messages_sent"`
}

// Adjustment is one named term of the additive score.
type Adjustment struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Adjustments returns the deterministic terms of the score for f, baseline
// first, in evaluation order. Terms that do not apply have Value 0.
func Adjustments(f Features) []Adjustment {
	adj := make([]Adjustment, 0, 11)
	add := func(name string, v float64) {
		adj = append(adj, Adjustment{Name: name, Value: v})
	}

	add("baseline", Baseline)

	small, large := 0.0, 0.0
	if f.OrderSubtotal < SmallOrderThreshold {
		small = SmallOrderBonus
	}
	if f.OrderSubtotal > LargeOrderThreshold {
		large = LargeOrderBonus
	}
	add("small_order", small)
	add("large_order", large)

	var weather float64
	switch f.Weather {
	case "rain":
		weather = RainBonus
	case "snow":
		weather = SnowBonus
	}
	add("weather", weather)

	extraDistance := math.Max(f.DistanceMiles-FreeDistanceMiles, 0)
	add("extra_distance", extraDistance*PerExtraMile)

	extraWait := math.Max(f.WaitTimeMinutes-ExpectedWaitMinutes, 0)
	add("extra_wait", -(extraWait * PerExtraWaitMinute))

	var timeOfDay float64
	switch f.TimeOfDay {
	case "night":
		timeOfDay = NightBonus
	case "morning":
		timeOfDay = -MorningPenalty
	}
	add("time_of_day", timeOfDay)

	var weekend float64
	switch f.DayOfWeek {
	case "Fri", "Sat", "Sun":
		weekend = WeekendBonus
	}
	add("weekend", weekend)

	add("communication", float64(f.CommunicationRating-NeutralRating)*PerRatingStep)

	extraItems := max(f.ItemCount-FreeItems, 0)
	add("extra_items", float64(extraItems)*PerExtraItem)

	messages := min(f.MessagesSent, MessageCap)
	add("messages", float64(messages)*PerMessage)

	return adj
}

// TipPercent scores one order: the deterministic terms summed in order, plus
// noise, clipped to [0, 40].
func TipPercent(f Features, noise float64) float64 {
	var tip float64
	for _, a := range Adjustments(f) {
		tip += a.Value
	}
	tip += noise
	return clip(tip)
}

// NoiseFunc yields one independent noise draw per call.
type NoiseFunc func() float64

// ZeroNoise is a NoiseFunc that always returns 0, making scores deterministic.
func ZeroNoise() float64 { return 0 }

// GaussianNoise returns a NoiseFunc drawing from N(0, std) on src.
func GaussianNoise(src rand.Source, std float64) NoiseFunc {
	dist := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	return dist.Rand
}

// Score applies TipPercent to every row independently, drawing fresh noise
// per row in row order. A nil noise function means no noise.
func Score(rows []Features, noise NoiseFunc) []float64 {
	if noise == nil {
		noise = ZeroNoise
	}
	out := make([]float64, len(rows))
	for i, f := range rows {
		out[i] = TipPercent(f, noise())
	}
	return out
}

// TipAmount converts a tip percentage of subtotal into dollars.
func TipAmount(subtotal, tipPercent float64) float64 {
	return subtotal * tipPercent / 100
}

func clip(v float64) float64 {
	if v < MinTipPercent {
		return MinTipPercent
	}
	if v > MaxTipPercent {
		return MaxTipPercent
	}
	return v
}
