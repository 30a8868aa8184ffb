// Package dataset assembles the synthetic delivery-tipping feature table.
package dataset

import (
	"fmt"
	"slices"

	"github.com/nvandessel/tipgen/internal/heuristic"
)

// Column names, in persisted order.
const (
	ColDistanceMiles       = "distance_miles"
	ColOrderSubtotal       = "order_subtotal"
	ColWaitTimeMinutes     = "wait_time_minutes"
	ColWeather             = "weather"
	ColTimeOfDay           = "time_of_day"
	ColDayOfWeek           = "day_of_week"
	ColCommunicationRating = "communication_rating"
	ColItemCount           = "item_count"
	ColMessagesSent        = "messages_sent"
	ColTipPercent          = "tip_percent"
	ColTipAmount           = "tip_amount"
)

// ColumnKind describes the value type stored in a column.
type ColumnKind int

const (
	KindFloat ColumnKind = iota
	KindInt
	KindString
)

// Column is one entry of the table schema.
type Column struct {
	Name string
	Kind ColumnKind
}

// Schema lists the eleven columns of a feature table in persisted order.
var Schema = []Column{
	{ColDistanceMiles, KindFloat},
	{ColOrderSubtotal, KindFloat},
	{ColWaitTimeMinutes, KindFloat},
	{ColWeather, KindString},
	{ColTimeOfDay, KindString},
	{ColDayOfWeek, KindString},
	{ColCommunicationRating, KindInt},
	{ColItemCount, KindInt},
	{ColMessagesSent, KindInt},
	{ColTipPercent, KindFloat},
	{ColTipAmount, KindFloat},
}

// ColumnNames returns the schema's column names in order.
func ColumnNames() []string {
	names := make([]string, len(Schema))
	for i, c := range Schema {
		names[i] = c.Name
	}
	return names
}

// NumericColumns returns the names of all float and int columns in order.
func NumericColumns() []string {
	var names []string
	for _, c := range Schema {
		if c.Kind != KindString {
			names = append(names, c.Name)
		}
	}
	return names
}

// CategoricalColumns returns the names of all string columns in order.
func CategoricalColumns() []string {
	var names []string
	for _, c := range Schema {
		if c.Kind == KindString {
			names = append(names, c.Name)
		}
	}
	return names
}

// Row is one simulated order: its features plus the derived tip.
type Row struct {
	heuristic.Features
	TipPercent float64 `json:"tip_percent"`
	TipAmount  float64 `json:"tip_amount"`
}

// Table is a columnar feature table. Every column has the same length and
// index i across columns describes the same order. A Table is never
// modified after construction; accessors return copies.
type Table struct {
	distance   []float64
	subtotal   []float64
	wait       []float64
	weather    []string
	timeOfDay  []string
	dayOfWeek  []string
	rating     []int
	items      []int
	messages   []int
	tipPercent []float64
	tipAmount  []float64
}

// NewTable builds a table from rows, copying their values.
func NewTable(rows []Row) *Table {
	n := len(rows)
	t := &Table{
		distance:   make([]float64, n),
		subtotal:   make([]float64, n),
		wait:       make([]float64, n),
		weather:    make([]string, n),
		timeOfDay:  make([]string, n),
		dayOfWeek:  make([]string, n),
		rating:     make([]int, n),
		items:      make([]int, n),
		messages:   make([]int, n),
		tipPercent: make([]float64, n),
		tipAmount:  make([]float64, n),
	}
	for i, r := range rows {
		t.distance[i] = r.DistanceMiles
		t.subtotal[i] = r.OrderSubtotal
		t.wait[i] = r.WaitTimeMinutes
		t.weather[i] = r.Weather
		t.timeOfDay[i] = r.TimeOfDay
		t.dayOfWeek[i] = r.DayOfWeek
		t.rating[i] = r.CommunicationRating
		t.items[i] = r.ItemCount
		t.messages[i] = r.MessagesSent
		t.tipPercent[i] = r.TipPercent
		t.tipAmount[i] = r.TipAmount
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.distance)
}

// Row returns row i. It panics if i is out of range.
func (t *Table) Row(i int) Row {
	return Row{
		Features:   t.features(i),
		TipPercent: t.tipPercent[i],
		TipAmount:  t.tipAmount[i],
	}
}

// Rows returns every row in order.
func (t *Table) Rows() []Row {
	rows := make([]Row, t.Len())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

func (t *Table) features(i int) heuristic.Features {
	return heuristic.Features{
		DistanceMiles:       t.distance[i],
		OrderSubtotal:       t.subtotal[i],
		WaitTimeMinutes:     t.wait[i],
		Weather:             t.weather[i],
		TimeOfDay:           t.timeOfDay[i],
		DayOfWeek:           t.dayOfWeek[i],
		CommunicationRating: t.rating[i],
		ItemCount:           t.items[i],
		MessagesSent:        t.messages[i],
	}
}

// Floats returns a copy of a numeric column as float64 values. Integer
// columns are converted.
func (t *Table) Floats(name string) ([]float64, error) {
	switch name {
	case ColDistanceMiles:
		return slices.Clone(t.distance), nil
	case ColOrderSubtotal:
		return slices.Clone(t.subtotal), nil
	case ColWaitTimeMinutes:
		return slices.Clone(t.wait), nil
	case ColTipPercent:
		return slices.Clone(t.tipPercent), nil
	case ColTipAmount:
		return slices.Clone(t.tipAmount), nil
	case ColCommunicationRating, ColItemCount, ColMessagesSent:
		ints, _ := t.Ints(name)
		out := make([]float64, len(ints))
		for i, v := range ints {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("column %q is not numeric", name)
}

// Ints returns a copy of an integer column.
func (t *Table) Ints(name string) ([]int, error) {
	switch name {
	case ColCommunicationRating:
		return slices.Clone(t.rating), nil
	case ColItemCount:
		return slices.Clone(t.items), nil
	case ColMessagesSent:
		return slices.Clone(t.messages), nil
	}
	return nil, fmt.Errorf("column %q is not an integer column", name)
}

// Strings returns a copy of a categorical column.
func (t *Table) Strings(name string) ([]string, error) {
	switch name {
	case ColWeather:
		return slices.Clone(t.weather), nil
	case ColTimeOfDay:
		return slices.Clone(t.timeOfDay), nil
	case ColDayOfWeek:
		return slices.Clone(t.dayOfWeek), nil
	}
	return nil, fmt.Errorf("column %q is not categorical", name)
}

// Record returns the row as strings in schema order, formatted for text output.
func (r Row) Record() []string {
	return []string{
		formatFloat(r.DistanceMiles),
		formatFloat(r.OrderSubtotal),
		formatFloat(r.WaitTimeMinutes),
		r.Weather,
		r.TimeOfDay,
		r.DayOfWeek,
		formatInt(r.CommunicationRating),
		formatInt(r.ItemCount),
		formatInt(r.MessagesSent),
		formatFloat(r.TipPercent),
		formatFloat(r.TipAmount),
	}
}
