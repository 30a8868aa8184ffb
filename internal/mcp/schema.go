// Package mcp provides an MCP (Model Context Protocol) server for tipgen.
package mcp

import (
	"time"
)

// GenerateInput defines the input for the tipgen_generate tool.
type GenerateInput struct {
	Rows       *int    `json:"rows,omitempty" jsonschema:"Number of orders to generate (default: configured rows)"`
	Seed       *uint64 `json:"seed,omitempty" jsonschema:"Seed for a reproducible dataset; omit for a fresh random draw"`
	Name       string  `json:"name,omitempty" jsonschema:"Optional label stored with the dataset"`
	Format     string  `json:"format,omitempty" jsonschema:"File format when output_path is set: csv, parquet, arrow or snapshot (default: inferred from the extension)"`
	OutputPath string  `json:"output_path,omitempty" jsonschema:"Optional file to write, under the data directory or working directory"`
}

// GenerateOutput defines the output for the tipgen_generate tool.
type GenerateOutput struct {
	DatasetID  string      `json:"dataset_id" jsonschema:"Catalog ID of the generated dataset"`
	Rows       int         `json:"rows" jsonschema:"Number of generated orders"`
	Seed       *uint64     `json:"seed,omitempty" jsonschema:"Seed used, only when one was supplied"`
	OutputPath string      `json:"output_path,omitempty" jsonschema:"Absolute path of the written file"`
	Format     string      `json:"format,omitempty" jsonschema:"Format of the written file"`
	TipPercent ColumnStats `json:"tip_percent" jsonschema:"Summary of the generated tip percentages"`
	Message    string      `json:"message" jsonschema:"Human-readable result message"`
}

// DescribeInput defines the input for the tipgen_describe tool.
type DescribeInput struct {
	DatasetID string `json:"dataset_id" jsonschema:"Catalog ID of the dataset to describe"`
}

// DescribeOutput defines the output for the tipgen_describe tool.
type DescribeOutput struct {
	Dataset DatasetItem   `json:"dataset" jsonschema:"Catalog entry for the dataset"`
	Columns []ColumnStats `json:"columns" jsonschema:"Per-column statistics for every numeric column"`
	Weather []GroupStats  `json:"weather" jsonschema:"Tip percentage by weather"`
}

// ListInput defines the input for the tipgen_list tool.
type ListInput struct{}

// ListOutput defines the output for the tipgen_list tool.
type ListOutput struct {
	Datasets []DatasetItem `json:"datasets" jsonschema:"Cataloged datasets, newest first"`
	Count    int           `json:"count" jsonschema:"Number of datasets"`
}

// DatasetItem is a list view of a cataloged dataset.
type DatasetItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Source      string    `json:"source"`
	Rows        int       `json:"rows"`
	Seed        *uint64   `json:"seed,omitempty"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// ColumnStats is a describe row. Statistics are omitted when undefined,
// for example on an empty column.
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Q25    *float64 `json:"q25,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Q75    *float64 `json:"q75,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// GroupStats summarizes tip_percent for one category.
type GroupStats struct {
	Category string   `json:"category"`
	Count    int      `json:"count"`
	Mean     *float64 `json:"mean,omitempty"`
	Median   *float64 `json:"median,omitempty"`
}
