package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// InputConfig names the three source files and how each one is read.
type InputConfig struct {
	PostcodeFile         string `yaml:"postcode_file" envconfig:"POSTCODE_FILE" validate:"required"`
	AddressFile          string `yaml:"address_file" envconfig:"ADDRESS_FILE" validate:"required"`
	PrescriptionFile     string `yaml:"prescription_file" envconfig:"PRESCRIPTION_FILE" validate:"required"`
	PostcodeStrategy     string `yaml:"postcode_strategy" envconfig:"POSTCODE_STRATEGY" validate:"oneof=structured chunked sequential"`
	AddressStrategy      string `yaml:"address_strategy" envconfig:"ADDRESS_STRATEGY" validate:"oneof=structured chunked sequential"`
	PrescriptionStrategy string `yaml:"prescription_strategy" envconfig:"PRESCRIPTION_STRATEGY" validate:"oneof=structured chunked sequential"`
	AddressFilter        string `yaml:"address_filter" envconfig:"ADDRESS_FILTER"`
	PrescriptionFilter   string `yaml:"prescription_filter" envconfig:"PRESCRIPTION_FILTER"`
}

// AnalysisConfig holds the targets of the five prescription aggregates
// and the location counted in the address pass.
type AnalysisConfig struct {
	TargetLocation      string `yaml:"target_location" envconfig:"TARGET_LOCATION" validate:"required"`
	AverageCostDrug     string `yaml:"average_cost_drug" envconfig:"AVERAGE_COST_DRUG" validate:"required"`
	RegionalDrugPattern string `yaml:"regional_drug_pattern" envconfig:"REGIONAL_DRUG_PATTERN" validate:"required,regexp"`
	RegionalDrugLabel   string `yaml:"regional_drug_label" envconfig:"REGIONAL_DRUG_LABEL" validate:"required"`
	TopSpenders         int    `yaml:"top_spenders" envconfig:"TOP_SPENDERS" validate:"min=1"`
	Antidepressants     string `yaml:"antidepressants" envconfig:"ANTIDEPRESSANTS" validate:"required"`
	// FailOnNoData aborts the run when the average cost or the national mean
	// has no contributing rows. Otherwise the report prints "no data".
	FailOnNoData bool `yaml:"fail_on_no_data" envconfig:"FAIL_ON_NO_DATA"`
}

// OutputConfig controls where results are written. ReportFile is always
// written; the other outputs are off when empty.
type OutputConfig struct {
	ReportFile string `yaml:"report_file" envconfig:"REPORT_FILE" validate:"required"`
	CSVDir     string `yaml:"csv_dir" envconfig:"CSV_DIR"`
	XLSXFile   string `yaml:"xlsx_file" envconfig:"XLSX_FILE"`
	ParquetDir string `yaml:"parquet_dir" envconfig:"PARQUET_DIR"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// PipelineConfig tunes how the passes are scheduled.
type PipelineConfig struct {
	// ParallelLookups builds the postcode and address lookups concurrently.
	// Each builder owns its own maps, and both finish before aggregation.
	ParallelLookups bool `yaml:"parallel_lookups" envconfig:"PARALLEL_LOOKUPS"`
}

// Load builds the configuration from defaults, an optional YAML file and
// RX_* environment variables, in increasing order of precedence.
// Input paths are usually supplied later by command-line flags, so Load
// does not validate; call Validate once the configuration is complete.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit YAML file. An empty path falls back to
// RX_CONFIG_FILE and the default locations.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	configFile := path
	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"rxreport.yaml",
		"configs/rxreport.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the configuration and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Input: InputConfig{
			PostcodeStrategy:     "structured",
			AddressStrategy:      "chunked",
			PrescriptionStrategy: "sequential",
		},
		Analysis: AnalysisConfig{
			TargetLocation:      DefaultTargetLocation,
			AverageCostDrug:     DefaultAverageCostDrug,
			RegionalDrugPattern: DefaultRegionalDrugPattern,
			RegionalDrugLabel:   DefaultRegionalDrugLabel,
			TopSpenders:         DefaultTopSpenders,
			Antidepressants:     DefaultAntidepressants,
		},
		Output: OutputConfig{
			ReportFile: DefaultReportFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			TraceExporter: "none",
			EnableMetrics: true,
		},
	}
}
