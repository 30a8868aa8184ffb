package heuristic

import (
	"math"
	"math/rand/v2"
	"testing"
)

// neutral is an order where every adjustment term is zero.
func neutral() Features {
	return Features{
		DistanceMiles:       4.0,
		WaitTimeMinutes:     12.0,
		OrderSubtotal:       20,
		Weather:             "clear",
		TimeOfDay:           "afternoon",
		DayOfWeek:           "Wed",
		CommunicationRating: 3,
		ItemCount:           2,
		MessagesSent:        0,
	}
}

func TestTipPercent_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Features)
		want   float64
	}{
		{"neutral order", func(f *Features) {}, 15.0},
		{"snow", func(f *Features) { f.Weather = "snow" }, 18.0},
		{"rain", func(f *Features) { f.Weather = "rain" }, 17.0},
		{"small order", func(f *Features) { f.OrderSubtotal = 10 }, 19.0},
		{"large order", func(f *Features) { f.OrderSubtotal = 50 }, 17.0},
		{"subtotal exactly 15", func(f *Features) { f.OrderSubtotal = 15 }, 15.0},
		{"subtotal exactly 40", func(f *Features) { f.OrderSubtotal = 40 }, 15.0},
		{"night", func(f *Features) { f.TimeOfDay = "night" }, 16.0},
		{"morning", func(f *Features) { f.TimeOfDay = "morning" }, 14.5},
		{"saturday", func(f *Features) { f.DayOfWeek = "Sat" }, 15.8},
		{"five stars", func(f *Features) { f.CommunicationRating = 5 }, 15 + 2*0.8},
		{"one star", func(f *Features) { f.CommunicationRating = 1 }, 15 - 2*0.8},
		{"six items", func(f *Features) { f.ItemCount = 6 }, 16.0},
		{"zero items", func(f *Features) { f.ItemCount = 0 }, 15.0},
		{"two messages", func(f *Features) { f.MessagesSent = 2 }, 15.8},
		{"messages capped", func(f *Features) { f.MessagesSent = 10 }, 15 + 3*0.4},
		{"long distance", func(f *Features) { f.DistanceMiles = 9 }, 18.0},
		{"long wait", func(f *Features) { f.WaitTimeMinutes = 22 }, 12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := neutral()
			tt.modify(&f)
			got := TipPercent(f, 0)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TipPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTipPercent_NeutralIsExact(t *testing.T) {
	if got := TipPercent(neutral(), 0); got != 15.0 {
		t.Errorf("TipPercent(neutral) = %v, want exactly 15.0", got)
	}
	f := neutral()
	f.Weather = "snow"
	if got := TipPercent(f, 0); got != 18.0 {
		t.Errorf("TipPercent(snow) = %v, want exactly 18.0", got)
	}
	f = neutral()
	f.OrderSubtotal = 10
	if got := TipPercent(f, 0); got != 19.0 {
		t.Errorf("TipPercent(small order) = %v, want exactly 19.0", got)
	}
}

func TestTipPercent_Clips(t *testing.T) {
	generous := Features{
		DistanceMiles:       15,
		WaitTimeMinutes:     0,
		OrderSubtotal:       5,
		Weather:             "snow",
		TimeOfDay:           "night",
		DayOfWeek:           "Sun",
		CommunicationRating: 5,
		ItemCount:           20,
		MessagesSent:        3,
	}
	if got := TipPercent(generous, 30); got != MaxTipPercent {
		t.Errorf("expected clip to 40, got %v", got)
	}

	stingy := neutral()
	stingy.WaitTimeMinutes = 30
	stingy.CommunicationRating = 1
	if got := TipPercent(stingy, -30); got != MinTipPercent {
		t.Errorf("expected clip to 0, got %v", got)
	}
}

func TestTipPercent_AddsNoise(t *testing.T) {
	if got := TipPercent(neutral(), 2.5); got != 17.5 {
		t.Errorf("TipPercent(noise=2.5) = %v, want 17.5", got)
	}
}

func TestMonotonicInDistance(t *testing.T) {
	prev := -1.0
	for d := 4.0; d <= 15; d += 0.5 {
		f := neutral()
		f.DistanceMiles = d
		got := TipPercent(f, 0)
		if got < prev {
			t.Fatalf("tip decreased from %v to %v at distance %v", prev, got, d)
		}
		if d > 4 && got <= 15 {
			t.Fatalf("distance %v did not raise tip above baseline", d)
		}
		prev = got
	}

	// Below the free distance, distance has no effect.
	f := neutral()
	f.DistanceMiles = 1
	if got := TipPercent(f, 0); got != 15 {
		t.Errorf("short distance changed tip: %v", got)
	}
}

func TestMonotonicInWait(t *testing.T) {
	prev := math.Inf(1)
	for w := 12.0; w <= 30; w += 1 {
		f := neutral()
		f.WaitTimeMinutes = w
		got := TipPercent(f, 0)
		if got > prev {
			t.Fatalf("tip increased from %v to %v at wait %v", prev, got, w)
		}
		prev = got
	}
}

func TestExpectedTipMonotonicWithNoise(t *testing.T) {
	noise := GaussianNoise(rand.NewPCG(1, 1), NoiseStd)
	mean := func(f Features) float64 {
		var sum float64
		const trials = 4000
		for range trials {
			sum += TipPercent(f, noise())
		}
		return sum / trials
	}

	near, far := neutral(), neutral()
	far.DistanceMiles = 12
	if mean(far) <= mean(near) {
		t.Error("expected longer distance to raise the expected tip")
	}

	short, long := neutral(), neutral()
	long.WaitTimeMinutes = 25
	if mean(long) >= mean(short) {
		t.Error("expected longer wait to lower the expected tip")
	}
}

func TestAdjustments_Order(t *testing.T) {
	want := []string{
		"baseline", "small_order", "large_order", "weather", "extra_distance",
		"extra_wait", "time_of_day", "weekend", "communication", "extra_items", "messages",
	}
	got := Adjustments(neutral())
	if len(got) != len(want) {
		t.Fatalf("got %d adjustments, want %d", len(got), len(want))
	}
	for i, a := range got {
		if a.Name != want[i] {
			t.Errorf("adjustment[%d] = %q, want %q", i, a.Name, want[i])
		}
		if i > 0 && a.Value != 0 {
			t.Errorf("neutral order has non-zero %s term %v", a.Name, a.Value)
		}
	}
}

func TestScore(t *testing.T) {
	rows := []Features{neutral(), neutral(), neutral()}
	rows[1].Weather = "snow"

	got := Score(rows, nil)
	want := []float64{15, 18, 15}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Score()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	calls := 0
	counting := func() float64 { calls++; return 1 }
	got = Score(rows, counting)
	if calls != len(rows) {
		t.Errorf("expected one noise draw per row, got %d", calls)
	}
	if got[0] != 16 {
		t.Errorf("expected noise to be added, got %v", got[0])
	}

	if out := Score(nil, nil); len(out) != 0 {
		t.Errorf("Score(nil) = %v, want empty", out)
	}
}

func TestGaussianNoise_Moments(t *testing.T) {
	noise := GaussianNoise(rand.NewPCG(7, 7), NoiseStd)
	const n = 20000
	var sum, sumSq float64
	for range n {
		v := noise()
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	if math.Abs(mean) > 0.1 {
		t.Errorf("noise mean = %v, want ~0", mean)
	}
	if math.Abs(std-NoiseStd) > 0.1 {
		t.Errorf("noise std = %v, want ~%v", std, NoiseStd)
	}
}

func TestTipAmount(t *testing.T) {
	if got := TipAmount(20, 15); got != 3 {
		t.Errorf("TipAmount(20, 15) = %v, want 3", got)
	}
	if got := TipAmount(33.5, 0); got != 0 {
		t.Errorf("TipAmount with zero percent = %v", got)
	}
}
