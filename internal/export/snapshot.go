package export

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/tipgen/internal/dataset"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// MaxDecompressedSize caps the decompressed snapshot payload (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// ErrChecksumMismatch is returned when a snapshot payload does not match its header.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// SnapshotHeader is the plain-text first line of a snapshot file.
type SnapshotHeader struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Checksum  string            `json:"checksum"`
	RowCount  int               `json:"row_count"`
	Columns   []string          `json:"columns"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EncodeSnapshot writes a header line followed by a gzip-compressed JSONL
// payload holding one row per line.
func EncodeSnapshot(w io.Writer, t *dataset.Table, meta map[string]string) error {
	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	enc := json.NewEncoder(gzw)
	for i := range t.Len() {
		if err := enc.Encode(t.Row(i)); err != nil {
			return fmt.Errorf("encoding row %d: %w", i, err)
		}
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	header := SnapshotHeader{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		Checksum:  checksum(compressed.Bytes()),
		RowCount:  t.Len(),
		Columns:   dataset.ColumnNames(),
		Metadata:  meta,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	if _, err := w.Write(append(headerBytes, '\n')); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("writing compressed payload: %w", err)
	}
	return nil
}

// DecodeSnapshot verifies the checksum and row count, then decodes the rows.
func DecodeSnapshot(r io.Reader) (*dataset.Table, *SnapshotHeader, error) {
	reader := bufio.NewReader(r)
	header, err := readHeader(reader)
	if err != nil {
		return nil, nil, err
	}

	compressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	if actual := checksum(compressed); actual != header.Checksum {
		return nil, nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, header.Checksum, actual)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	limited := &io.LimitedReader{R: gzr, N: MaxDecompressedSize + 1}
	dec := json.NewDecoder(limited)
	rows := make([]dataset.Row, 0, header.RowCount)
	for {
		var row dataset.Row
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("decoding row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
	if limited.N <= 0 {
		return nil, nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}
	if len(rows) != header.RowCount {
		return nil, nil, fmt.Errorf("header declares %d rows, payload has %d", header.RowCount, len(rows))
	}
	return dataset.NewTable(rows), header, nil
}

// WriteSnapshot writes a snapshot file at path, creating parent directories.
func WriteSnapshot(path string, t *dataset.Table, meta map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := EncodeSnapshot(f, t, meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSnapshot reads and verifies the snapshot file at path.
func ReadSnapshot(path string) (*dataset.Table, *SnapshotHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return DecodeSnapshot(f)
}

// ReadSnapshotHeader reads only the header line without decompressing.
func ReadSnapshotHeader(path string) (*SnapshotHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return readHeader(bufio.NewReader(f))
}

func readHeader(r *bufio.Reader) (*SnapshotHeader, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}

	var header SnapshotHeader
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", header.Version)
	}
	return &header, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
