package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/tipgen/internal/constants"
	"github.com/nvandessel/tipgen/internal/dataset"
)

// Encode writes t to w in the given format.
func Encode(w io.Writer, format constants.Format, t *dataset.Table) error {
	switch format {
	case constants.FormatCSV:
		return WriteCSV(w, t)
	case constants.FormatArrow:
		return WriteArrow(w, t)
	case constants.FormatParquet:
		return WriteParquet(w, t)
	case constants.FormatSnapshot:
		return EncodeSnapshot(w, t, nil)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// Decode reads a table in the given format from r.
func Decode(ctx context.Context, r io.Reader, format constants.Format) (*dataset.Table, error) {
	switch format {
	case constants.FormatCSV:
		return ReadCSV(r)
	case constants.FormatArrow:
		return ReadArrow(r)
	case constants.FormatParquet:
		return ReadParquet(ctx, r)
	case constants.FormatSnapshot:
		t, _, err := DecodeSnapshot(r)
		return t, err
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// FormatFromPath infers a format from the file extension.
func FormatFromPath(path string) (constants.Format, bool) {
	lower := strings.ToLower(path)
	for _, f := range constants.Formats {
		if strings.HasSuffix(lower, f.Extension()) {
			return f, true
		}
	}
	return "", false
}

// OutputFormat returns format, or when it is empty the format implied by
// path's extension, falling back to CSV.
func OutputFormat(path string, format constants.Format) constants.Format {
	if format != "" {
		return format
	}
	if f, ok := FormatFromPath(path); ok {
		return f
	}
	return constants.FormatCSV
}

// WriteFile writes t to path, creating parent directories. An empty format
// is inferred from the extension, falling back to CSV.
func WriteFile(path string, format constants.Format, t *dataset.Table) error {
	format = OutputFormat(path, format)
	if !format.Valid() {
		return fmt.Errorf("unsupported format %q", format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := Encode(f, format, t); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a table from path. An empty format is inferred from the
// extension.
func ReadFile(ctx context.Context, path string, format constants.Format) (*dataset.Table, error) {
	if format == "" {
		var ok bool
		if format, ok = FormatFromPath(path); !ok {
			return nil, fmt.Errorf("cannot infer format of %s", path)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	t, err := Decode(ctx, f, format)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}
