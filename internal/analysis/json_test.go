package analysis

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/tipgen/internal/dataset"
)

func TestSummaryJSON_EmptyColumnIsNull(t *testing.T) {
	data, err := json.Marshal(Summarize(dataset.ColTipPercent, nil))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, dataset.ColTipPercent, got["column"])
	assert.Equal(t, 0.0, got["count"])
	assert.Nil(t, got["mean"])
	assert.Nil(t, got["q75"])
}

func TestSummaryJSON_Values(t *testing.T) {
	data, err := json.Marshal(Summarize("x", []float64{1, 2, 3}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2.0, got["mean"])
	assert.Equal(t, 1.0, got["min"])
	assert.Equal(t, 3.0, got["max"])
}

func TestGroupJSON_SingleRowStdIsNull(t *testing.T) {
	data, err := json.Marshal(Group{Category: "snow", Count: 1, Mean: 4, Std: math.NaN(), Median: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"snow","count":1,"mean":4,"std":null,"median":4}`, string(data))
}

func TestCorrelationJSON_ConstantColumn(t *testing.T) {
	m, err := Correlation(fixedTable())
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var got struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Values, len(got.Columns))

	// wait_time_minutes is constant in the fixture.
	w := -1
	for i, c := range got.Columns {
		if c == dataset.ColWaitTimeMinutes {
			w = i
		}
	}
	require.GreaterOrEqual(t, w, 0)
	assert.Nil(t, got.Values[w][0])
	require.NotNil(t, got.Values[0][0])
	assert.Equal(t, 1.0, *got.Values[0][0])
}

func TestFinite(t *testing.T) {
	assert.Nil(t, Finite(math.NaN()))
	assert.Nil(t, Finite(math.Inf(1)))
	require.NotNil(t, Finite(2.5))
	assert.Equal(t, 2.5, *Finite(2.5))
}
