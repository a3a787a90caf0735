package config

const (
	// DefaultStateDBPath is where the export-state database lives unless
	// overridden via STATE_DB_PATH.
	DefaultStateDBPath = "./kobo-export.db"

	// DefaultExportDir is the output directory for rendered HTML files.
	DefaultExportDir = "./Exported"

	// DefaultTempDBName is the local copy of the device database. The
	// device file is never opened directly so the reader is not locked
	// while mounted.
	DefaultTempDBName = "kobo_temp.sqlite"

	DefaultContextWords      = 30
	DefaultContextParagraphs = 0
	DefaultMaxContextWords   = 100

	// DefaultMinConfidence is the similarity threshold below which the
	// locator reports NotFound instead of a fuzzy match.
	DefaultMinConfidence = 0.6
)
