// Package constants provides named constants used throughout the tipgen codebase.
// This centralizes distribution defaults and file names for better maintainability.
package constants

// Dataset size
const (
	// DefaultRows is the number of simulated orders generated when no row
	// count is configured.
	DefaultRows = 2000
)

// Distance (miles). Most deliveries fall between 1 and 6 miles; a wide
// standard deviation lets a few orders sit very close or very far.
const (
	DistanceMean = 3.5
	DistanceStd  = 2.0
	DistanceMin  = 0.1
	DistanceMax  = 15.0
)

// Order subtotal ($), lognormal in log space. Most orders are small and a
// long right tail covers large group orders.
const (
	SubtotalLogMean  = 3.0
	SubtotalLogSigma = 0.5
)

// Restaurant wait time (minutes).
const (
	WaitTimeMean = 10.0
	WaitTimeStd  = 4.0
	WaitTimeMin  = 0.0
	WaitTimeMax  = 30.0
)

// Communication rating (stars), drawn uniformly from the inclusive range.
const (
	RatingMin = 1
	RatingMax = 5
)

// Poisson rates for count features.
const (
	ItemCountRate    = 3.0
	MessagesSentRate = 1.2
)

// ProbabilityTolerance is the allowed deviation from 1.0 when checking that
// categorical probabilities sum to one.
const ProbabilityTolerance = 1e-6

// Categorical defaults.
var (
	WeatherChoices = []string{"clear", "rain", "snow"}
	WeatherProbs   = []float64{0.7, 0.2, 0.1}

	TimeOfDayChoices = []string{"morning", "afternoon", "night"}
	TimeOfDayProbs   = []float64{0.2, 0.5, 0.3}

	DayOfWeekChoices = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	DayOfWeekProbs   = []float64{1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7}
)

// File and directory names under the data directory.
const (
	DataDirName    = ".tipgen"
	ConfigFileName = "config.yaml"
	CatalogDBName  = "tipgen.db"
	RunLogFileName = "runs.jsonl"
)

// DefaultOutputBase is the file name, without extension, that
// `tipgen generate` writes when no output path is given.
const DefaultOutputBase = "synthetic_delivery_data"
