package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxcli/internal/prescription"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{3.2, "3.20"},
		{107.58, "107.58"},
		{1234.5, "1,234.50"},
		{2030.99, "2,030.99"},
		{1234567.891, "1,234,567.89"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.in))
		})
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "12,345", FormatCount(12345))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		national float64
		regional float64
		gap      float64
		cmp      Comparison
	}{
		{"region below", 3.20, 2.80, 0.40, LessThan},
		{"region above", 3.20, 4.49, 1.29, GreaterThan},
		{"equal", 3.20, 3.20, 0, GreaterThan},
		{"empty region", 3.20, 0, 3.20, LessThan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gap, cmp := Compare(tt.national, tt.regional)
			assert.InDelta(t, tt.gap, gap, 1e-9)
			assert.Equal(t, tt.cmp, cmp)
		})
	}
}

func sampleSummary() Summary {
	return Summary{
		Location:        "LONDON",
		LocationCount:   2,
		AverageCostDrug: "Peppermint Oil",
		AverageCost:     107.58,
		TopN:            5,
		TopSpenders: []prescription.Spender{
			{Postcode: "WA3 6AB", Total: 2030.99},
			{Postcode: "SE1 7EH", Total: 119.70},
		},
		RegionalDrug: "Flucloxacillin",
		RegionalMeans: []prescription.RegionValue{
			{Region: "North West", Value: 4.49},
			{Region: "London", Value: 2.57},
		},
		NationalMean: 3.20,
		Antidepressants: []prescription.RegionCount{
			{Region: "North West", Count: 4},
			{Region: "London", Count: 1200},
		},
	}
}

func TestWrite(t *testing.T) {
	want := "Number of practices in LONDON: 2\n" +
		"\n" +
		"Average cost of Peppermint Oil: £107.58\n" +
		"\n" +
		"Top 5 postcodes by Actual Spend:\n" +
		"Postcode WA3 6AB spent £2,030.99\n" +
		"Postcode SE1 7EH spent £119.70\n" +
		"\n" +
		"Spending by region per prescription of Flucloxacillin:\n" +
		"The average cost in the North West region was £4.49. This was £1.29 greater than the national mean.\n" +
		"The average cost in the London region was £2.57. This was £0.63 less than the national mean.\n" +
		"\n" +
		"National Mean: £3.20\n" +
		"\n" +
		"Antidepressant prescriptions by region:\n" +
		"The total number of anti-depressant prescriptions in the North West region were 4.\n" +
		"The total number of anti-depressant prescriptions in the London region were 1,200.\n"

	assert.Equal(t, want, sampleSummary().String())
}

func TestWrite_MissingFigures(t *testing.T) {
	s := sampleSummary()
	s.AverageCost, s.AverageCostMissing = 0, true
	s.NationalMean, s.NationalMeanMissing = 0, true
	s.RegionalMeans = []prescription.RegionValue{{Region: "London", Value: 0}}

	out := s.String()
	assert.Contains(t, out, "Average cost of Peppermint Oil: no data\n")
	assert.Contains(t, out, "The average cost in the London region was £0.00.\n")
	assert.Contains(t, out, "National Mean: no data\n")
	assert.NotContains(t, out, "national mean.")
	assert.NotContains(t, out, "£0.00 less than")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesWriterError(t *testing.T) {
	err := Write(failingWriter{}, sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
