package exporter

import (
	"rxcli/internal/report"
)

// Table names, also used as file stems and sheet names.
const (
	SummaryTable         = "summary"
	TopSpendersTable     = "top_spenders"
	RegionalMeansTable   = "regional_means"
	AntidepressantsTable = "antidepressants"
)

// Table is one aggregate laid out as rows of strings. Numeric marks the
// columns whose cells are numbers; an empty cell in such a column has no
// value.
type Table struct {
	Name    string
	Headers []string
	Numeric []bool
	Records [][]string
}

// IsNumeric reports whether column col holds numbers.
func (t Table) IsNumeric(col int) bool {
	return col < len(t.Numeric) && t.Numeric[col]
}

// Tables lays out every aggregate of s as a Table.
func Tables(s report.Summary) []Table {
	avg := formatFloat(s.AverageCost)
	if s.AverageCostMissing {
		avg = ""
	}
	national := formatFloat(s.NationalMean)
	if s.NationalMeanMissing {
		national = ""
	}

	summary := Table{
		Name: SummaryTable,
		Headers: []string{"location", "location_count", "average_cost_drug", "average_cost",
			"regional_drug", "national_mean"},
		Numeric: []bool{false, true, false, true, false, true},
		Records: [][]string{{
			s.Location, formatInt(s.LocationCount), s.AverageCostDrug, avg, s.RegionalDrug, national,
		}},
	}

	spenders := Table{
		Name:    TopSpendersTable,
		Headers: []string{"rank", "postcode", "total"},
		Numeric: []bool{true, false, true},
	}
	for i, sp := range s.TopSpenders {
		spenders.Records = append(spenders.Records,
			[]string{formatInt(i + 1), sp.Postcode, formatFloat(sp.Total)})
	}

	means := Table{
		Name:    RegionalMeansTable,
		Headers: []string{"region", "average_cost", "difference", "comparison"},
		Numeric: []bool{false, true, true, false},
	}
	for _, rv := range s.RegionalMeans {
		if s.NationalMeanMissing {
			means.Records = append(means.Records, []string{rv.Region, formatFloat(rv.Value), "", ""})
			continue
		}
		gap, cmp := report.Compare(s.NationalMean, rv.Value)
		means.Records = append(means.Records,
			[]string{rv.Region, formatFloat(rv.Value), formatFloat(gap), string(cmp)})
	}

	anti := Table{
		Name:    AntidepressantsTable,
		Headers: []string{"region", "items"},
		Numeric: []bool{false, true},
	}
	for _, rc := range s.Antidepressants {
		anti.Records = append(anti.Records, []string{rc.Region, formatInt(rc.Count)})
	}

	return []Table{summary, spenders, means, anti}
}
