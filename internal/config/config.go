package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/normalize"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`

	// File is the configuration file that was loaded, if any
	File string `yaml:"-" ignored:"true"`
}

// PathsConfig contains file system locations
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig controls how a run evaluates records
type PipelineConfig struct {
	// EvaluationDate is YYYY-MM-DD; empty means the day of the run
	EvaluationDate    string            `yaml:"evaluation_date" envconfig:"EVALUATION_DATE"`
	DefaultRecurrence int               `yaml:"default_recurrence" envconfig:"DEFAULT_RECURRENCE"`
	Workers           int               `yaml:"workers" envconfig:"WORKERS"`
	DefaultCompany    string            `yaml:"default_company" envconfig:"DEFAULT_COMPANY"`
	AllowedStatuses   map[string]string `yaml:"allowed_statuses" envconfig:"ALLOWED_STATUSES"`
	DateLayouts       []string          `yaml:"date_layouts" envconfig:"DATE_LAYOUTS"`
}

// ExportConfig controls output files
type ExportConfig struct {
	Formats      []string `yaml:"formats" envconfig:"FORMATS"`
	WorkbookName string   `yaml:"workbook_name" envconfig:"WORKBOOK_NAME"`
	BOM          bool     `yaml:"bom" envconfig:"BOM"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Tracing         bool   `yaml:"tracing" envconfig:"TRACING"`
	TraceFile       string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string          `yaml:"addr" envconfig:"ADDR"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RunTimeout      time.Duration   `yaml:"run_timeout" envconfig:"RUN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig limits how often runs may be triggered over HTTP
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// Load builds the configuration from defaults, a YAML file and the
// environment, in increasing order of precedence. An empty configFile
// falls back to TRACKER_CONFIG_FILE and the well-known locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apierrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
		cfg.File = configFile
	}

	// Only variables that are set override; defaults live in Default()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apierrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}
	for _, location := range configFileLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks values and normalizes case-insensitive settings
func (c *Config) Validate() error {
	invalid := func(msg string, args ...any) error {
		return apierrors.NewConfigError(fmt.Sprintf(msg, args...), nil)
	}

	if c.Paths.InputDir == "" || c.Paths.OutputDir == "" {
		return invalid("input_dir and output_dir are required")
	}

	if c.Pipeline.EvaluationDate != "" {
		if _, err := time.Parse(DateLayout, c.Pipeline.EvaluationDate); err != nil {
			return invalid("evaluation_date %q must be YYYY-MM-DD", c.Pipeline.EvaluationDate)
		}
	}
	if c.Pipeline.DefaultRecurrence < 0 {
		return invalid("default_recurrence must not be negative: %d", c.Pipeline.DefaultRecurrence)
	}
	if c.Pipeline.Workers < 0 {
		return invalid("workers must not be negative: %d", c.Pipeline.Workers)
	}
	if _, bad := normalize.BuildStatusAliases(c.Pipeline.AllowedStatuses); len(bad) > 0 {
		return invalid("allowed_statuses map to unknown statuses: %s", strings.Join(bad, ", "))
	}

	if len(c.Export.Formats) == 0 {
		return invalid("at least one export format is required")
	}
	for i, f := range c.Export.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != FormatCSV && f != FormatXLSX {
			return invalid("unknown export format %q", f)
		}
		c.Export.Formats[i] = f
	}
	if c.Export.WorkbookName == "" {
		c.Export.WorkbookName = DefaultWorkbookName
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("unknown logging level %q", c.Logging.Level)
	}
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return invalid("logging output must be console, file or both: %q", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return invalid("logging file_path is required for %s output", c.Logging.Output)
	}

	if c.Server.Addr == "" {
		return invalid("server addr is required")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return invalid("server timeouts must be positive")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return invalid("rate_limit rps and burst must be positive when enabled")
	}
	return nil
}

// FixedDate returns the configured evaluation date, zero when runs follow
// the calendar
func (p PipelineConfig) FixedDate() time.Time {
	if p.EvaluationDate == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, p.EvaluationDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Date returns the configured evaluation date, or the day of now
func (p PipelineConfig) Date(now time.Time) time.Time {
	if t := p.FixedDate(); !t.IsZero() {
		return t
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HasFormat reports whether an export format is enabled
func (e ExportConfig) HasFormat(format string) bool {
	for _, f := range e.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			InputDir:  "input",
			OutputDir: "output",
			LogsDir:   "logs",
		},
		Pipeline: PipelineConfig{
			DefaultRecurrence: 0,
			Workers:           0,
		},
		Export: ExportConfig{
			Formats:      []string{FormatCSV, FormatXLSX},
			WorkbookName: DefaultWorkbookName,
			BOM:          true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/tracker.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "training-tracker",
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RunTimeout:      DefaultRunTimeout,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRunRate,
				Burst:   DefaultRunBurst,
			},
		},
	}
}
