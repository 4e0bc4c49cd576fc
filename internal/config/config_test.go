package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Input.PostcodeFile = "postcodes.csv"
	cfg.Input.AddressFile = "addresses.csv"
	cfg.Input.PrescriptionFile = "prescriptions.csv"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "LONDON", cfg.Analysis.TargetLocation)
	assert.Equal(t, "Peppermint Oil", cfg.Analysis.AverageCostDrug)
	assert.Equal(t, `^Flucloxacillin\s*\w*`, cfg.Analysis.RegionalDrugPattern)
	assert.Equal(t, 5, cfg.Analysis.TopSpenders)
	assert.Contains(t, cfg.Analysis.Antidepressants, "Mirtazapine")
	assert.Equal(t, "structured", cfg.Input.PostcodeStrategy)
	assert.Equal(t, "chunked", cfg.Input.AddressStrategy)
	assert.Equal(t, "sequential", cfg.Input.PrescriptionStrategy)
	assert.Equal(t, "output.txt", cfg.Output.ReportFile)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.False(t, cfg.Pipeline.ParallelLookups)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing postcode file",
			mutate:  func(c *Config) { c.Input.PostcodeFile = "" },
			wantErr: "PostcodeFile",
		},
		{
			name:    "missing prescription file",
			mutate:  func(c *Config) { c.Input.PrescriptionFile = "" },
			wantErr: "PrescriptionFile",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Input.AddressStrategy = "mmap" },
			wantErr: "AddressStrategy",
		},
		{
			name:    "bad regional pattern",
			mutate:  func(c *Config) { c.Analysis.RegionalDrugPattern = "^(Fluclox" },
			wantErr: "regexp",
		},
		{
			name:    "zero top spenders",
			mutate:  func(c *Config) { c.Analysis.TopSpenders = 0 },
			wantErr: "TopSpenders",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "Level",
		},
		{
			name: "file output needs a path",
			mutate: func(c *Config) {
				c.Logging.Output = "file"
				c.Logging.FilePath = ""
			},
			wantErr: "FilePath",
		},
		{
			name:    "unknown trace exporter",
			mutate:  func(c *Config) { c.Telemetry.TraceExporter = "otlp" },
			wantErr: "TraceExporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RX_LOGGING_LEVEL", "debug")
	t.Setenv("RX_INPUT_ADDRESS_STRATEGY", "structured")
	t.Setenv("RX_ANALYSIS_TARGET_LOCATION", "LEEDS")
	t.Setenv("RX_ANALYSIS_TOP_SPENDERS", "3")
	t.Setenv("RX_PIPELINE_PARALLEL_LOOKUPS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "structured", cfg.Input.AddressStrategy)
	assert.Equal(t, "LEEDS", cfg.Analysis.TargetLocation)
	assert.Equal(t, 3, cfg.Analysis.TopSpenders)
	assert.True(t, cfg.Pipeline.ParallelLookups)
	// untouched values keep their defaults
	assert.Equal(t, "Peppermint Oil", cfg.Analysis.AverageCostDrug)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yamlPath := filepath.Join(dir, "custom.yaml")
	content := `
analysis:
  target_location: LEEDS
  top_spenders: 10
output:
  report_file: reports/out.txt
  xlsx_file: reports/out.xlsx
`
	require.NoError(t, os.WriteFile(yamlPath, []byte(content), 0644))
	t.Setenv("RX_CONFIG_FILE", yamlPath)
	t.Setenv("RX_ANALYSIS_TOP_SPENDERS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "LEEDS", cfg.Analysis.TargetLocation)
	assert.Equal(t, 7, cfg.Analysis.TopSpenders, "env wins over file")
	assert.Equal(t, "reports/out.txt", cfg.Output.ReportFile)
	assert.Equal(t, "reports/out.xlsx", cfg.Output.XLSXFile)
	assert.Equal(t, "Peppermint Oil", cfg.Analysis.AverageCostDrug, "file keeps unspecified defaults")
}

func TestLoad_DiscoversConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rxreport.yaml"), []byte("logging:\n  level: warn\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [unterminated"), 0644))
	t.Setenv("RX_CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestLoad_BadEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RX_ANALYSIS_TOP_SPENDERS", "five")

	_, err := Load()
	assert.Error(t, err)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadFile_ExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rxreport.yaml"), []byte("logging:\n  level: warn\n"), 0644))
	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("logging:\n  level: error\n"), 0644))

	cfg, err := LoadFile(explicit)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_FailOnNoData(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Analysis.FailOnNoData, "missing figures are reported, not fatal, by default")

	t.Setenv("RX_ANALYSIS_FAIL_ON_NO_DATA", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Analysis.FailOnNoData)
}
