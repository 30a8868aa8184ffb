package dataset

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/nvandessel/tipgen/internal/config"
	"github.com/nvandessel/tipgen/internal/heuristic"
	"github.com/nvandessel/tipgen/internal/sampler"
)

func generate(t *testing.T, rows int, opts ...Option) *Table {
	t.Helper()
	opts = append([]Option{WithRows(rows), WithSeed(1234)}, opts...)
	res, err := Generate(config.DefaultGenerator(), opts...)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return res.Table
}

func TestGenerate_Shape(t *testing.T) {
	for _, n := range []int{0, 1, 17, 2000} {
		tbl := generate(t, n)
		if tbl.Len() != n {
			t.Errorf("rows=%d: got Len %d", n, tbl.Len())
		}
		for _, col := range Schema {
			var got int
			switch col.Kind {
			case KindString:
				v, err := tbl.Strings(col.Name)
				if err != nil {
					t.Fatalf("Strings(%s): %v", col.Name, err)
				}
				got = len(v)
			default:
				v, err := tbl.Floats(col.Name)
				if err != nil {
					t.Fatalf("Floats(%s): %v", col.Name, err)
				}
				got = len(v)
			}
			if got != n {
				t.Errorf("rows=%d: column %s has length %d", n, col.Name, got)
			}
		}
	}
	if len(Schema) != 11 {
		t.Errorf("expected 11 columns, got %d", len(Schema))
	}
}

func TestGenerate_DefaultRows(t *testing.T) {
	res, err := Generate(config.DefaultGenerator(), WithSeed(1))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Table.Len() != 2000 {
		t.Errorf("expected configured 2000 rows, got %d", res.Table.Len())
	}
}

func TestGenerate_ZeroRows(t *testing.T) {
	tbl := generate(t, 0)
	if len(tbl.Rows()) != 0 {
		t.Errorf("expected empty table, got %d rows", len(tbl.Rows()))
	}
}

func TestGenerate_Invariants(t *testing.T) {
	cfg := config.DefaultGenerator()
	tbl := generate(t, 3000)

	weather := cfg.Weather.Choices
	times := cfg.TimeOfDay.Choices
	days := cfg.DayOfWeek.Choices

	for i, r := range tbl.Rows() {
		if r.DistanceMiles < 0.1 || r.DistanceMiles > 15 {
			t.Fatalf("row %d: distance %v out of [0.1, 15]", i, r.DistanceMiles)
		}
		if r.WaitTimeMinutes < 0 || r.WaitTimeMinutes > 30 {
			t.Fatalf("row %d: wait %v out of [0, 30]", i, r.WaitTimeMinutes)
		}
		if r.OrderSubtotal <= 0 {
			t.Fatalf("row %d: non-positive subtotal %v", i, r.OrderSubtotal)
		}
		if r.TipPercent < 0 || r.TipPercent > 40 {
			t.Fatalf("row %d: tip_percent %v out of [0, 40]", i, r.TipPercent)
		}
		if r.TipAmount != r.OrderSubtotal*r.TipPercent/100 {
			t.Fatalf("row %d: tip_amount %v != subtotal*tip/100", i, r.TipAmount)
		}
		if r.CommunicationRating < 1 || r.CommunicationRating > 5 {
			t.Fatalf("row %d: rating %d out of [1, 5]", i, r.CommunicationRating)
		}
		if r.ItemCount < 0 || r.MessagesSent < 0 {
			t.Fatalf("row %d: negative counts %d/%d", i, r.ItemCount, r.MessagesSent)
		}
		if !slices.Contains(weather, r.Weather) {
			t.Fatalf("row %d: unknown weather %q", i, r.Weather)
		}
		if !slices.Contains(times, r.TimeOfDay) {
			t.Fatalf("row %d: unknown time_of_day %q", i, r.TimeOfDay)
		}
		if !slices.Contains(days, r.DayOfWeek) {
			t.Fatalf("row %d: unknown day_of_week %q", i, r.DayOfWeek)
		}
	}
}

func TestGenerate_WithoutNoiseMatchesHeuristic(t *testing.T) {
	tbl := generate(t, 500, WithoutNoise())
	for i, r := range tbl.Rows() {
		want := heuristic.TipPercent(r.Features, 0)
		if r.TipPercent != want {
			t.Fatalf("row %d: tip_percent %v, want %v", i, r.TipPercent, want)
		}
	}
}

func TestGenerate_NoiseIsApplied(t *testing.T) {
	tbl := generate(t, 500)
	differs := 0
	for _, r := range tbl.Rows() {
		if r.TipPercent != heuristic.TipPercent(r.Features, 0) {
			differs++
		}
	}
	if differs == 0 {
		t.Error("expected noisy tips to differ from the deterministic score")
	}
}

func TestGenerate_SeedReproducible(t *testing.T) {
	a := generate(t, 200)
	b := generate(t, 200)
	if !slices.Equal(a.Rows(), b.Rows()) {
		t.Error("same seed produced different tables")
	}

	res, err := Generate(config.DefaultGenerator(), WithRows(200), WithSeed(4321))
	if err != nil {
		t.Fatal(err)
	}
	if slices.Equal(a.Rows(), res.Table.Rows()) {
		t.Error("different seeds produced identical tables")
	}
	if res.Seed == nil || *res.Seed != 4321 {
		t.Errorf("expected reported seed 4321, got %v", res.Seed)
	}
}

func TestGenerate_ConfigSeed(t *testing.T) {
	cfg := config.DefaultGenerator()
	seed := uint64(1234)
	cfg.Seed = &seed
	cfg.Rows = 50

	res, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Table.Rows(), generate(t, 50).Rows()) {
		t.Error("config seed and WithSeed should produce the same table")
	}
}

func TestGenerate_UnseededRunsDiffer(t *testing.T) {
	a, err := Generate(config.DefaultGenerator(), WithRows(50))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(config.DefaultGenerator(), WithRows(50))
	if err != nil {
		t.Fatal(err)
	}
	if a.Seed != nil || b.Seed != nil {
		t.Error("expected no seed to be reported for unseeded runs")
	}
	if slices.Equal(a.Table.Rows(), b.Table.Rows()) {
		t.Error("two unseeded runs produced identical tables")
	}
}

func TestGenerate_WithSource(t *testing.T) {
	a, err := Generate(config.DefaultGenerator(), WithRows(20), WithSource(sampler.NewSource(9)))
	if err != nil {
		t.Fatal(err)
	}
	if a.Seed != nil {
		t.Error("expected no seed when a source is supplied")
	}
	b, err := Generate(config.DefaultGenerator(), WithRows(20), WithSeed(9))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Table.Rows(), b.Table.Rows()) {
		t.Error("source built from seed 9 should match WithSeed(9)")
	}
}

type countingSource struct {
	calls int
}

func (c *countingSource) Uint64() uint64 {
	c.calls++
	return uint64(c.calls) * 0x9e3779b97f4a7c15
}

func TestGenerate_ConfigErrorBeforeSampling(t *testing.T) {
	cfg := config.DefaultGenerator()
	cfg.Weather.Probs = []float64{0.6, 0.2, 0.1}

	src := &countingSource{}
	res, err := Generate(cfg, WithRows(10), WithSource(src))
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if res != nil {
		t.Error("expected no result on error")
	}
	if src.calls != 0 {
		t.Errorf("expected no random draws before validation, got %d", src.calls)
	}
}

func TestGenerate_NegativeRows(t *testing.T) {
	_, err := Generate(config.DefaultGenerator(), WithRows(-1))
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestGenerate_RejectsMalformedParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.GeneratorConfig)
	}{
		{"NaN distance mean", func(g *config.GeneratorConfig) { g.Distance.Mean = math.NaN() }},
		{"NaN wait max", func(g *config.GeneratorConfig) { g.WaitTime.Max, g.WaitTime.Mean = math.NaN(), 100 }},
		{"rating range wider than int", func(g *config.GeneratorConfig) { g.Rating = config.IntRange{Min: 0, Max: math.MaxInt} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultGenerator()
			tt.modify(&cfg)
			_, err := Generate(cfg, WithRows(3), WithSeed(1))
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestGenerate_CustomConfig(t *testing.T) {
	cfg := config.DefaultGenerator()
	cfg.Weather = config.Categorical{Choices: []string{"snow"}, Probs: []float64{1}}
	cfg.Rating = config.IntRange{Min: 3, Max: 3}
	cfg.MessagesSent.Rate = 0

	res, err := Generate(cfg, WithRows(100), WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range res.Table.Rows() {
		if r.Weather != "snow" || r.CommunicationRating != 3 || r.MessagesSent != 0 {
			t.Fatalf("row %d ignored custom config: %+v", i, r)
		}
	}
}

func TestTableAccessorsReturnCopies(t *testing.T) {
	tbl := generate(t, 10)

	d, _ := tbl.Floats(ColDistanceMiles)
	d[0] = math.Inf(1)
	if again, _ := tbl.Floats(ColDistanceMiles); math.IsInf(again[0], 1) {
		t.Error("Floats exposed internal storage")
	}

	w, _ := tbl.Strings(ColWeather)
	w[0] = "hail"
	if again, _ := tbl.Strings(ColWeather); again[0] == "hail" {
		t.Error("Strings exposed internal storage")
	}
}

func TestTableAccessorErrors(t *testing.T) {
	tbl := generate(t, 3)
	if _, err := tbl.Floats(ColWeather); err == nil {
		t.Error("expected error for Floats on a string column")
	}
	if _, err := tbl.Ints(ColTipPercent); err == nil {
		t.Error("expected error for Ints on a float column")
	}
	if _, err := tbl.Strings(ColItemCount); err == nil {
		t.Error("expected error for Strings on an int column")
	}
	if _, err := tbl.Floats("nope"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestNewTableRoundTrip(t *testing.T) {
	tbl := generate(t, 25)
	rebuilt := NewTable(tbl.Rows())
	if !slices.Equal(tbl.Rows(), rebuilt.Rows()) {
		t.Error("NewTable(Rows()) changed the table")
	}
}

func TestRecordParseRecord(t *testing.T) {
	tbl := generate(t, 25)
	for i, r := range tbl.Rows() {
		rec := r.Record()
		if len(rec) != len(Schema) {
			t.Fatalf("row %d: record has %d fields", i, len(rec))
		}
		parsed, err := ParseRecord(rec)
		if err != nil {
			t.Fatalf("row %d: ParseRecord() error = %v", i, err)
		}
		if parsed != r {
			t.Fatalf("row %d: parsed %+v, want %+v", i, parsed, r)
		}
	}
}

func TestParseRecord_Errors(t *testing.T) {
	good := generate(t, 1).Row(0).Record()

	if _, err := ParseRecord(good[:5]); err == nil {
		t.Error("expected error for short record")
	}

	bad := slices.Clone(good)
	bad[6] = "three"
	if _, err := ParseRecord(bad); err == nil {
		t.Error("expected error for non-integer rating")
	}
}

func TestColumnGroups(t *testing.T) {
	if got := CategoricalColumns(); !slices.Equal(got, []string{ColWeather, ColTimeOfDay, ColDayOfWeek}) {
		t.Errorf("CategoricalColumns() = %v", got)
	}
	if got := len(NumericColumns()); got != 8 {
		t.Errorf("expected 8 numeric columns, got %d", got)
	}
	if got := ColumnNames(); got[0] != ColDistanceMiles || got[10] != ColTipAmount {
		t.Errorf("unexpected column order: %v", got)
	}
}
