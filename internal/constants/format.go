package constants

// Format identifies an on-disk encoding of a feature table.
type Format string

const (
	// FormatCSV is a comma-separated table with a header row and no index column.
	FormatCSV Format = "csv"

	// FormatParquet is an Apache Parquet file.
	FormatParquet Format = "parquet"

	// FormatArrow is an Apache Arrow IPC file.
	FormatArrow Format = "arrow"

	// FormatSnapshot is a checksummed, gzip-compressed JSONL snapshot.
	FormatSnapshot Format = "snapshot"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatCSV, FormatParquet, FormatArrow, FormatSnapshot}

// Valid returns true if the format is a recognized value.
func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatParquet, FormatArrow, FormatSnapshot:
		return true
	}
	return false
}

// Extension returns the conventional file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatParquet:
		return ".parquet"
	case FormatArrow:
		return ".arrow"
	case FormatSnapshot:
		return ".jsonl.gz"
	default:
		return ".csv"
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}
