package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/tipgen/internal/constants"
	"github.com/nvandessel/tipgen/internal/dataset"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ Catalog = (*SQLiteStore)(nil)

// SQLiteStore implements Catalog on a SQLite database at <dir>/tipgen.db.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// Open creates dir if needed and opens (or creates) the catalog database.
func Open(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, constants.CatalogDBName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// newDatasetID derives an ID from the save time. The random suffix keeps
// IDs distinct when the clock does not advance between saves.
func newDatasetID(now time.Time) string {
	return fmt.Sprintf("ds-%d-%08x", now.UnixNano(), rand.Uint32())
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// SaveDataset stores t and its metadata in one transaction. Empty ID and
// zero CreatedAt are filled in; Rows and ContentHash are always derived
// from t. The stored metadata is returned.
func (s *SQLiteStore) SaveDataset(ctx context.Context, meta DatasetMeta, t *dataset.Table) (DatasetMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if meta.ID == "" {
		meta.ID = newDatasetID(now)
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	if meta.Source == "" {
		meta.Source = SourceCLI
	}
	meta.Rows = t.Len()
	meta.ContentHash = ContentHash(t)

	configJSON, err := json.Marshal(meta.Config)
	if err != nil {
		return DatasetMeta{}, fmt.Errorf("failed to marshal config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DatasetMeta{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, name, source, row_count, seed, config, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, nullString(meta.Name), meta.Source, meta.Rows, seedString(meta.Seed),
		string(configJSON), meta.ContentHash, meta.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return DatasetMeta{}, fmt.Errorf("failed to insert dataset %s: %w", meta.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (dataset_id, row_index, distance_miles, order_subtotal, wait_time_minutes,
			weather, time_of_day, day_of_week, communication_rating, item_count, messages_sent,
			tip_percent, tip_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return DatasetMeta{}, fmt.Errorf("failed to prepare order insert: %w", err)
	}
	defer stmt.Close()

	for i := range t.Len() {
		r := t.Row(i)
		if _, err := stmt.ExecContext(ctx, meta.ID, i,
			r.DistanceMiles, r.OrderSubtotal, r.WaitTimeMinutes,
			r.Weather, r.TimeOfDay, r.DayOfWeek,
			r.CommunicationRating, r.ItemCount, r.MessagesSent,
			r.TipPercent, r.TipAmount); err != nil {
			return DatasetMeta{}, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return DatasetMeta{}, fmt.Errorf("failed to commit dataset %s: %w", meta.ID, err)
	}
	return meta, nil
}

const selectMeta = `SELECT id, name, source, row_count, seed, config, content_hash, created_at FROM datasets`

// ListDatasets returns every dataset, newest first.
func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]DatasetMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectMeta+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	var out []DatasetMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *meta)
	}
	return out, rows.Err()
}

// GetDataset returns the metadata for id, or ErrNotFound.
func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*DatasetMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := scanMeta(s.db.QueryRowContext(ctx, selectMeta+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return meta, err
}

// LoadTable reads the rows of dataset id back into a table.
func (s *SQLiteStore) LoadTable(ctx context.Context, id string) (*dataset.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var want int
	err := s.db.QueryRowContext(ctx, `SELECT row_count FROM datasets WHERE id = ?`, id).Scan(&want)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT distance_miles, order_subtotal, wait_time_minutes, weather, time_of_day, day_of_week,
			communication_rating, item_count, messages_sent, tip_percent, tip_amount
		FROM orders WHERE dataset_id = ? ORDER BY row_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	out := make([]dataset.Row, 0, want)
	for rows.Next() {
		var r dataset.Row
		if err := rows.Scan(
			&r.DistanceMiles, &r.OrderSubtotal, &r.WaitTimeMinutes,
			&r.Weather, &r.TimeOfDay, &r.DayOfWeek,
			&r.CommunicationRating, &r.ItemCount, &r.MessagesSent,
			&r.TipPercent, &r.TipAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != want {
		return nil, fmt.Errorf("dataset %s declares %d rows, found %d", id, want, len(out))
	}
	return dataset.NewTable(out), nil
}

// DeleteDataset removes a dataset and its rows.
func (s *SQLiteStore) DeleteDataset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(sc scanner) (*DatasetMeta, error) {
	var (
		meta       DatasetMeta
		name, seed sql.NullString
		configJSON string
		createdAt  string
	)
	if err := sc.Scan(&meta.ID, &name, &meta.Source, &meta.Rows, &seed, &configJSON, &meta.ContentHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan dataset: %w", err)
	}
	meta.Name = name.String

	if seed.Valid {
		v, err := strconv.ParseUint(seed.String, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset %s has invalid seed %q: %w", meta.ID, seed.String, err)
		}
		meta.Seed = &v
	}
	if err := json.Unmarshal([]byte(configJSON), &meta.Config); err != nil {
		return nil, fmt.Errorf("dataset %s has invalid config: %w", meta.ID, err)
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("dataset %s has invalid created_at: %w", meta.ID, err)
	}
	meta.CreatedAt = t
	return &meta, nil
}

// ContentHash fingerprints a table's values: the first 16 bytes of a
// sha256 over its text records.
func ContentHash(t *dataset.Table) string {
	h := sha256.New()
	for i := range t.Len() {
		h.Write([]byte(strings.Join(t.Row(i).Record(), ",")))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func seedString(seed *uint64) sql.NullString {
	if seed == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strconv.FormatUint(*seed, 10), Valid: true}
}
