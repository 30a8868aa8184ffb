// Package store catalogs generated datasets in SQLite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/tipgen/internal/config"
	"github.com/nvandessel/tipgen/internal/dataset"
)

// ErrNotFound is returned when a dataset ID is not in the catalog.
var ErrNotFound = errors.New("dataset not found")

// Dataset sources.
const (
	SourceCLI = "cli"
	SourceMCP = "mcp"
)

// DatasetMeta describes one cataloged dataset.
type DatasetMeta struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name,omitempty"`
	Source      string                 `json:"source"`
	Rows        int                    `json:"rows"`
	Seed        *uint64                `json:"seed,omitempty"`
	Config      config.GeneratorConfig `json:"config"`
	ContentHash string                 `json:"content_hash"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Catalog stores generated tables and their metadata.
type Catalog interface {
	SaveDataset(ctx context.Context, meta DatasetMeta, t *dataset.Table) (DatasetMeta, error)
	ListDatasets(ctx context.Context) ([]DatasetMeta, error)
	GetDataset(ctx context.Context, id string) (*DatasetMeta, error)
	LoadTable(ctx context.Context, id string) (*dataset.Table, error)
	DeleteDataset(ctx context.Context, id string) error
	Close() error
}
