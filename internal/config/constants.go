package config

// Application constants
const (
	AppName    = "rxreport"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. RX_LOGGING_LEVEL
	EnvPrefix = "RX"

	// Output defaults
	DefaultReportFile = "output.txt"
	DefaultLogFile    = "logs/rxreport.log"
	DefaultLogsDir    = "logs"
)

// Analysis defaults
const (
	DefaultTargetLocation      = "LONDON"
	DefaultAverageCostDrug     = "Peppermint Oil"
	DefaultRegionalDrugPattern = `^Flucloxacillin\s*\w*`
	DefaultRegionalDrugLabel   = "Flucloxacillin"
	DefaultTopSpenders         = 5

	// matched as a substring, so partial names such as "Venlafaxine" or
	// "Hydrochloride" also count
	DefaultAntidepressants = "Fluoxetine Hydrochloride Citalopram Hydrobromide Paroxetine Hydrochloride " +
		"Sertraline Hydrochloride Duloxetine Hydrochloride Venlafaxine Mirtazapine"
)

// AddressHeader is the positional schema of the practice address extract,
// which carries no header line of its own.
var AddressHeader = []string{
	"Period", "practice_code", "practice_name", "practice_building",
	"address", "locality", "town", "postcode",
}
