package prescription

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	apperrors "rxcli/internal/errors"
	"rxcli/internal/reader"
)

// Columns of the prescription log.
const (
	PracticeColumn   = "PRACTICE"
	DrugNameColumn   = "BNF NAME"
	ItemsColumn      = "ITEMS"
	ActualCostColumn = "ACT COST"
)

// PracticeLookup resolves a practice code to its postcode. ok is false for
// an unknown practice.
type PracticeLookup func(practiceCode string) (postcode string, ok bool, err error)

// RegionLookup resolves a full or outer postcode to its region.
type RegionLookup func(postcode string) (string, error)

// Targets selects the rows each aggregate looks at.
type Targets struct {
	AverageCostDrug string
	RegionalDrug    *regexp.Regexp
	Antidepressants string
}

// Spender is one entry of the spend-by-postcode ranking.
type Spender struct {
	Postcode string
	Total    float64
}

// RegionValue is a per-region monetary aggregate.
type RegionValue struct {
	Region string
	Value  float64
}

// RegionCount is a per-region item count.
type RegionCount struct {
	Region string
	Count  int
}

// Stats counts how rows were treated during ingestion.
type Stats struct {
	Rows            int64
	NonNumeric      int64
	UnknownPractice int64
	UnknownRegion   int64
}

// Aggregator computes the five prescription aggregates. It implements
// reader.RowHandler and is not safe for concurrent use.
type Aggregator struct {
	targets  Targets
	practice PracticeLookup
	region   RegionLookup
	regions  []string
	logger   *slog.Logger

	avgSum   float64
	avgCount int

	spend map[string]float64

	regionalSum   map[string]float64
	regionalCount map[string]int

	nationalSum   float64
	nationalCount int

	antidepressants map[string]int

	stats Stats
}

// NewAggregator returns an Aggregator with every region in regions seeded
// at zero. Both lookups must be backed by fully populated tables.
func NewAggregator(targets Targets, practice PracticeLookup, region RegionLookup, regions []string, logger *slog.Logger) (*Aggregator, error) {
	if practice == nil {
		return nil, apperrors.NotInitialized("practice to postcode lookup")
	}
	if region == nil {
		return nil, apperrors.NotInitialized("postcode to region lookup")
	}
	if targets.RegionalDrug == nil {
		return nil, apperrors.NewConfigError("regional drug pattern is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Aggregator{
		targets:         targets,
		practice:        practice,
		region:          region,
		logger:          logger,
		spend:           make(map[string]float64),
		regionalSum:     make(map[string]float64),
		regionalCount:   make(map[string]int),
		antidepressants: make(map[string]int),
	}
	for _, r := range regions {
		a.seed(r)
	}
	return a, nil
}

func (a *Aggregator) seed(region string) {
	if _, ok := a.regionalCount[region]; ok {
		return
	}
	a.regions = append(a.regions, region)
	a.regionalSum[region] = 0
	a.regionalCount[region] = 0
	a.antidepressants[region] = 0
}

// Ingest feeds one row into all five aggregates.
func (a *Aggregator) Ingest(row reader.Row) error {
	name, err := row.Value(DrugNameColumn)
	if err != nil {
		return err
	}
	costField, err := row.Value(ActualCostColumn)
	if err != nil {
		return err
	}
	itemsField, err := row.Value(ItemsColumn)
	if err != nil {
		return err
	}
	practiceCode, err := row.Value(PracticeColumn)
	if err != nil {
		return err
	}

	a.stats.Rows++
	cost, costOK := parseNumber(costField)
	items, itemsOK := parseNumber(itemsField)
	if !costOK {
		a.stats.NonNumeric++
	}

	if costOK && strings.Contains(name, a.targets.AverageCostDrug) {
		a.avgSum += cost
		a.avgCount++
	}

	postcode, found, err := a.practice(practiceCode)
	if err != nil {
		return err
	}
	if !found {
		a.stats.UnknownPractice++
	}

	if found && costOK {
		a.spend[postcode] += cost
	}

	if costOK && itemsOK && items != 0 && a.targets.RegionalDrug.MatchString(name) {
		unit := cost / items
		a.nationalSum += unit
		a.nationalCount++

		if found {
			region, ok, err := a.regionOf(postcode)
			if err != nil {
				return err
			}
			if ok {
				a.regionalSum[region] += unit
				a.regionalCount[region]++
			}
		}
	}

	if found && a.isAntidepressant(name) {
		n, convErr := strconv.Atoi(strings.TrimSpace(itemsField))
		if convErr != nil {
			a.logger.Debug("skipping antidepressant row with non-integer items",
				slog.String("items", itemsField),
				slog.Int64("line", row.Line()))
			return nil
		}
		region, ok, err := a.regionOf(postcode)
		if err != nil {
			return err
		}
		if ok {
			a.antidepressants[region] += n
		}
	}

	return nil
}

// regionOf treats an unknown postcode as a skip rather than a failure.
func (a *Aggregator) regionOf(postcode string) (string, bool, error) {
	region, err := a.region(postcode)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnknownPostcode) {
			a.stats.UnknownRegion++
			return "", false, nil
		}
		return "", false, err
	}
	a.seed(region)
	return region, true, nil
}

func (a *Aggregator) isAntidepressant(name string) bool {
	trimmed := strings.TrimRightFunc(name, unicode.IsSpace)
	return trimmed != "" && strings.Contains(a.targets.Antidepressants, trimmed)
}

// AverageCost returns the mean actual cost of the target drug, rounded to
// two decimal places.
func (a *Aggregator) AverageCost() (float64, error) {
	if a.avgCount == 0 {
		return 0, apperrors.NoData("average cost of " + a.targets.AverageCostDrug)
	}
	return round2(a.avgSum / float64(a.avgCount)), nil
}

// DrainTopSpenders removes and returns the n postcodes with the highest
// total actual cost, highest first. Fewer than n are returned when fewer
// remain. Equal totals are ordered by postcode.
func (a *Aggregator) DrainTopSpenders(n int) []Spender {
	out := make([]Spender, 0, max(0, min(n, len(a.spend))))
	for i := 0; i < n && len(a.spend) > 0; i++ {
		var (
			best    string
			bestVal float64
			first   = true
		)
		for pc, total := range a.spend {
			if first || total > bestVal || (total == bestVal && pc < best) {
				best, bestVal, first = pc, total, false
			}
		}
		delete(a.spend, best)
		out = append(out, Spender{Postcode: best, Total: round2(bestVal)})
	}
	return out
}

// RemainingSpenders returns the number of postcodes not yet drained.
func (a *Aggregator) RemainingSpenders() int { return len(a.spend) }

// AveragePriceByRegion returns the mean unit cost of the regional drug for
// every known region, zero where no row contributed.
func (a *Aggregator) AveragePriceByRegion() []RegionValue {
	out := make([]RegionValue, 0, len(a.regions))
	for _, r := range a.regions {
		v := 0.0
		if c := a.regionalCount[r]; c != 0 {
			v = round2(a.regionalSum[r] / float64(c))
		}
		out = append(out, RegionValue{Region: r, Value: v})
	}
	return out
}

// CostPerPrescription returns the national mean unit cost of the regional drug.
func (a *Aggregator) CostPerPrescription() (float64, error) {
	if a.nationalCount == 0 {
		return 0, apperrors.NoData("national cost per prescription")
	}
	return round2(a.nationalSum / float64(a.nationalCount)), nil
}

// AntidepressantCountByRegion returns the antidepressant item total for
// every known region.
func (a *Aggregator) AntidepressantCountByRegion() []RegionCount {
	out := make([]RegionCount, 0, len(a.regions))
	for _, r := range a.regions {
		out = append(out, RegionCount{Region: r, Count: a.antidepressants[r]})
	}
	return out
}

// Regions returns the known regions in report order.
func (a *Aggregator) Regions() []string {
	return append([]string(nil), a.regions...)
}

// Stats returns ingestion counters.
func (a *Aggregator) Stats() Stats { return a.stats }

// IsNumber reports whether s parses as a floating point number.
func IsNumber(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
