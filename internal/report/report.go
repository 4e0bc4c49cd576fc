package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"rxcli/internal/prescription"
)

// NoData is printed in place of a figure that had no contributing rows.
const NoData = "no data"

// Summary holds every figure the text report prints. AverageCostMissing and
// NationalMeanMissing mark figures that had no contributing rows; the
// matching float is then zero and is not printed.
type Summary struct {
	Location            string
	LocationCount       int
	AverageCostDrug     string
	AverageCost         float64
	AverageCostMissing  bool
	TopSpenders         []prescription.Spender
	TopN                int
	RegionalDrug        string
	RegionalMeans       []prescription.RegionValue
	NationalMean        float64
	NationalMeanMissing bool
	Antidepressants     []prescription.RegionCount
}

// Write renders s to w. Sections are separated by a blank line.
func Write(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Number of practices in %s: %s\n\n", s.Location, FormatCount(s.LocationCount))

	if s.AverageCostMissing {
		fmt.Fprintf(bw, "Average cost of %s: %s\n", s.AverageCostDrug, NoData)
	} else {
		fmt.Fprintf(bw, "Average cost of %s: £%s\n", s.AverageCostDrug, FormatCurrency(s.AverageCost))
	}

	topN := s.TopN
	if topN == 0 {
		topN = len(s.TopSpenders)
	}
	fmt.Fprintf(bw, "\nTop %d postcodes by Actual Spend:\n", topN)
	for _, sp := range s.TopSpenders {
		fmt.Fprintf(bw, "Postcode %s spent £%s\n", sp.Postcode, FormatCurrency(sp.Total))
	}

	fmt.Fprintf(bw, "\nSpending by region per prescription of %s:\n", s.RegionalDrug)
	for _, rv := range s.RegionalMeans {
		if s.NationalMeanMissing {
			// no matching rows nationally, so there is nothing to compare with
			fmt.Fprintf(bw, "The average cost in the %s region was £%s.\n", rv.Region, FormatCurrency(rv.Value))
			continue
		}
		gap, cmp := Compare(s.NationalMean, rv.Value)
		fmt.Fprintf(bw, "The average cost in the %s region was £%s. This was £%s %s the national mean.\n",
			rv.Region, FormatCurrency(rv.Value), FormatCurrency(gap), cmp)
	}

	if s.NationalMeanMissing {
		fmt.Fprintf(bw, "\nNational Mean: %s\n", NoData)
	} else {
		fmt.Fprintf(bw, "\nNational Mean: £%s\n", FormatCurrency(s.NationalMean))
	}

	bw.WriteString("\nAntidepressant prescriptions by region:\n")
	for _, rc := range s.Antidepressants {
		fmt.Fprintf(bw, "The total number of anti-depressant prescriptions in the %s region were %s.\n",
			rc.Region, FormatCount(rc.Count))
	}

	return bw.Flush()
}

// String renders s as a string.
func (s Summary) String() string {
	var sb strings.Builder
	_ = Write(&sb, s)
	return sb.String()
}
