package dataset

import (
	"fmt"
	"strconv"

	"github.com/nvandessel/tipgen/internal/heuristic"
)

// formatFloat uses the shortest representation that parses back to the same
// value, so text round-trips are lossless.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

// ParseRecord parses a record in schema order back into a Row.
func ParseRecord(rec []string) (Row, error) {
	if len(rec) != len(Schema) {
		return Row{}, fmt.Errorf("expected %d fields, got %d", len(Schema), len(rec))
	}

	var (
		r    Row
		errs []error
	)
	float := func(i int) float64 {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", Schema[i].Name, err))
		}
		return v
	}
	integer := func(i int) int {
		v, err := strconv.Atoi(rec[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", Schema[i].Name, err))
		}
		return v
	}

	r.Features = heuristic.Features{
		DistanceMiles:       float(0),
		OrderSubtotal:       float(1),
		WaitTimeMinutes:     float(2),
		Weather:             rec[3],
		TimeOfDay:           rec[4],
		DayOfWeek:           rec[5],
		CommunicationRating: integer(6),
		ItemCount:           integer(7),
		MessagesSent:        integer(8),
	}
	r.TipPercent = float(9)
	r.TipAmount = float(10)

	if len(errs) > 0 {
		return Row{}, errs[0]
	}
	return r, nil
}
