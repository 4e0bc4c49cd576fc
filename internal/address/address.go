// Package address builds the practice-code to postcode registry and counts
// practices located in a target town.
package address

import (
	"log/slog"
	"regexp"
	"strings"

	apperrors "rxcli/internal/errors"
	"rxcli/internal/reader"
)

// Columns of the practice address extract.
const (
	PracticeCodeColumn = "practice_code"
	AddressColumn      = "address"
	LocalityColumn     = "locality"
	TownColumn         = "town"
	PostcodeColumn     = "postcode"
)

// locationColumns are checked in this order and the first match wins.
var locationColumns = []string{TownColumn, LocalityColumn, AddressColumn}

// Registry maps practice codes to postcodes. It implements reader.RowHandler.
type Registry struct {
	postcodeByPractice map[string]string
	location           string
	locationRE         *regexp.Regexp
	locationCount      int
	rows               int64
	skipped            int64
	logger             *slog.Logger
}

// NewRegistry returns an empty Registry with no target location.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		postcodeByPractice: make(map[string]string),
		logger:             logger,
	}
}

// SetTargetLocation turns on location counting. A field matches when it is
// exactly location followed by optional trailing whitespace.
func (r *Registry) SetTargetLocation(location string) {
	r.location = location
	if location == "" {
		r.locationRE = nil
		return
	}
	r.locationRE = regexp.MustCompile(`^` + regexp.QuoteMeta(location) + `\s*$`)
}

// TargetLocation returns the configured location, or "" when counting is off.
func (r *Registry) TargetLocation() string { return r.location }

// Ingest records the row's practice postcode, last write winning, and
// counts the row at most once if it is in the target location. Rows whose
// field count differs from the header are skipped.
func (r *Registry) Ingest(row reader.Row) error {
	r.rows++
	if row.Len() != row.HeaderLen() {
		r.skipped++
		r.logger.Debug("skipping address row with unexpected field count",
			slog.Int("fields", row.Len()),
			slog.Int("expected", row.HeaderLen()),
			slog.Int64("line", row.Line()))
		return nil
	}

	code, err := row.Value(PracticeCodeColumn)
	if err != nil {
		return err
	}
	postcode, err := row.Value(PostcodeColumn)
	if err != nil {
		return err
	}
	r.postcodeByPractice[strings.TrimSpace(code)] = strings.TrimSpace(postcode)

	if r.locationRE == nil {
		return nil
	}
	for _, col := range locationColumns {
		v, err := row.Value(col)
		if err != nil {
			return err
		}
		if v != "" && r.locationRE.MatchString(v) {
			r.locationCount++
			break
		}
	}
	return nil
}

// PostcodeFor returns the postcode of a practice. ok is false for an
// unknown practice. An error is returned only while the registry is empty.
func (r *Registry) PostcodeFor(practiceCode string) (postcode string, ok bool, err error) {
	if len(r.postcodeByPractice) == 0 {
		return "", false, apperrors.NotInitialized("practice to postcode registry")
	}
	postcode, ok = r.postcodeByPractice[strings.TrimSpace(practiceCode)]
	return postcode, ok, nil
}

// LocationCount returns the number of rows found in the target location.
func (r *Registry) LocationCount() int { return r.locationCount }

// Entries returns the number of distinct practice codes.
func (r *Registry) Entries() int { return len(r.postcodeByPractice) }

// Rows returns the number of rows ingested, including skipped ones.
func (r *Registry) Rows() int64 { return r.rows }

// Skipped returns the number of rows ignored for having the wrong field count.
func (r *Registry) Skipped() int64 { return r.skipped }
