package config

import "time"

// Application constants
const (
	AppName   = "Training Tracker"
	EnvPrefix = "TRACKER"

	// ConfigFileEnv names an explicit configuration file
	ConfigFileEnv = "TRACKER_CONFIG_FILE"

	// Input layout
	HRDirName            = "hr"
	OrganizationsDirName = "organizations"
	RolesDirName         = "Roles"
	StatusDirName        = "Status"

	// Output files
	DefaultWorkbookName    = "training_tracker_outputs.xlsx"
	DefaultMetricsTextfile = "metrics.prom"

	// Export formats
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	// Date layout of evaluation dates in configuration and on the wire
	DateLayout = "2006-01-02"

	// Server defaults
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 2 * time.Minute
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRunTimeout      = 10 * time.Minute

	// Run triggers are expensive; a handful per minute is plenty
	DefaultRunRate  = 0.1
	DefaultRunBurst = 2
)

// configFileLocations are probed in order when no file is given
var configFileLocations = []string{
	"tracker.yaml",
	"configs/tracker.yaml",
}
