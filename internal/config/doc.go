// Package config provides configuration for the prescription report run.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones
// overriding earlier ones:
//
//	1. Default values (Default)
//	2. A YAML file passed to LoadFile, else RX_CONFIG_FILE, else rxreport.yaml or configs/rxreport.yaml
//	3. Environment variables
//	4. Command-line flags applied by the caller
//
// # Environment Variables
//
// Variables follow RX_<SECTION>_<FIELD>:
//
//	RX_LOGGING_LEVEL=debug
//	RX_INPUT_ADDRESS_STRATEGY=structured
//	RX_ANALYSIS_TARGET_LOCATION=LEEDS
//	RX_OUTPUT_XLSX_FILE=reports/summary.xlsx
//	RX_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/rxreport.prom
//
// # Validation
//
// Validate runs struct-tag validation (go-playground/validator) and should
// be called after all overrides, since the input paths are required.
//
// # Paths
//
// Paths resolves relative output locations against the working directory.
package config
