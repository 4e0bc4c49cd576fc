package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxcli/internal/config"
)

const testdataDir = "../../internal/pipeline/testdata"

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     error
		wantMissing []string
		check       func(*testing.T, *options)
	}{
		{
			name: "all inputs",
			args: []string{"-postcodes", "pc.csv", "-addresses", "addr.csv", "-prescriptions", "rx.csv"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, "pc.csv", o.postcodes)
				assert.Equal(t, "addr.csv", o.addresses)
				assert.Equal(t, "rx.csv", o.prescriptions)
				assert.False(t, o.parallel)
				assert.Empty(t, o.output)
			},
		},
		{
			name: "optional flags",
			args: []string{"-postcodes=pc.csv", "-addresses=addr.csv", "-prescriptions=rx.csv",
				"-config", "rx.yaml", "-output", "out/report.txt", "-parallel", "-print"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, "rx.yaml", o.configFile)
				assert.Equal(t, "out/report.txt", o.output)
				assert.True(t, o.parallel)
				assert.True(t, o.print)
			},
		},
		{
			name:        "no arguments",
			wantErr:     errMissingInput,
			wantMissing: []string{"-postcodes", "-addresses", "-prescriptions"},
		},
		{
			name:        "missing prescriptions",
			args:        []string{"-postcodes", "pc.csv", "-addresses", "addr.csv"},
			wantErr:     errMissingInput,
			wantMissing: []string{"-prescriptions"},
		},
		{
			name:    "help",
			args:    []string{"-h"},
			wantErr: flag.ErrHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			opts, err := parseFlags(tt.args, &stderr)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, opts)
				assert.Contains(t, stderr.String(), "Usage: rxreport")
				for _, name := range tt.wantMissing {
					assert.Contains(t, err.Error(), name)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, opts)
			tt.check(t, opts)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-postcodes", "pc.csv", "-verbose"}},
		{"positional argument", []string{"-postcodes", "a", "-addresses", "b", "-prescriptions", "c", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			_, err := parseFlags(tt.args, &stderr)
			assert.Error(t, err)
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestOptionsApply(t *testing.T) {
	cfg := config.Default()
	opts := &options{postcodes: "pc.csv", addresses: "addr.csv", prescriptions: "rx.csv"}

	opts.apply(cfg)
	assert.Equal(t, "pc.csv", cfg.Input.PostcodeFile)
	assert.Equal(t, "addr.csv", cfg.Input.AddressFile)
	assert.Equal(t, "rx.csv", cfg.Input.PrescriptionFile)
	assert.Equal(t, "output.txt", cfg.Output.ReportFile, "empty -output keeps the configured report file")
	assert.False(t, cfg.Pipeline.ParallelLookups)

	opts.output = "elsewhere.txt"
	opts.parallel = true
	opts.apply(cfg)
	assert.Equal(t, "elsewhere.txt", cfg.Output.ReportFile)
	assert.True(t, cfg.Pipeline.ParallelLookups)
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, exitUsage, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "missing required flags")
	assert.Empty(t, stdout.String())

	stderr.Reset()
	assert.Equal(t, exitOK, run([]string{"-help"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-prescriptions")
}

func TestRun_Report(t *testing.T) {
	dir, err := filepath.Abs(testdataDir)
	require.NoError(t, err)
	reportPath := filepath.Join(t.TempDir(), "report.txt")

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-postcodes", filepath.Join(dir, "postcode_sample.csv"),
		"-addresses", filepath.Join(dir, "address_sample.csv"),
		"-prescriptions", filepath.Join(dir, "prescription_sample.csv"),
		"-output", reportPath,
		"-print",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Number of practices in LONDON: 2")
	assert.Equal(t, string(content), stdout.String(), "-print echoes the report file")
}

func TestRun_MissingInputFile(t *testing.T) {
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-postcodes", filepath.Join(dir, "nope.csv"),
		"-addresses", filepath.Join(dir, "nope.csv"),
		"-prescriptions", filepath.Join(dir, "nope.csv"),
		"-output", filepath.Join(dir, "report.txt"),
	}, &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.NoFileExists(t, filepath.Join(dir, "report.txt"))
}

func TestRun_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [oops"), 0644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", path, "-postcodes", "a", "-addresses", "b", "-prescriptions", "c"}, &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "Failed to load configuration")
}
