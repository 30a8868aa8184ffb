package analysis

import (
	"encoding/json"
	"math"
)

// nullable encodes NaN and infinities as JSON null, which encoding/json
// otherwise refuses to marshal.
type nullable float64

func (f nullable) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Finite returns a pointer to v, or nil when v is NaN or infinite.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Column string   `json:"column"`
		Count  int      `json:"count"`
		Mean   nullable `json:"mean"`
		Std    nullable `json:"std"`
		Min    nullable `json:"min"`
		Q25    nullable `json:"q25"`
		Median nullable `json:"median"`
		Q75    nullable `json:"q75"`
		Max    nullable `json:"max"`
	}{
		s.Column, s.Count,
		nullable(s.Mean), nullable(s.Std), nullable(s.Min),
		nullable(s.Q25), nullable(s.Median), nullable(s.Q75), nullable(s.Max),
	})
}

func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category string   `json:"category"`
		Count    int      `json:"count"`
		Mean     nullable `json:"mean"`
		Std      nullable `json:"std"`
		Median   nullable `json:"median"`
	}{g.Category, g.Count, nullable(g.Mean), nullable(g.Std), nullable(g.Median)})
}

func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]nullable, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]nullable, len(row))
		for j, v := range row {
			values[i][j] = nullable(v)
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]nullable `json:"values"`
	}{m.Columns, values})
}
