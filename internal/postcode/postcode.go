// Package postcode builds the outer-postcode to region lookup.
package postcode

import (
	"log/slog"
	"strings"
	"unicode"

	apperrors "rxcli/internal/errors"
	"rxcli/internal/reader"
)

// Columns read from the postcode lookup file.
const (
	PostcodeColumn = "Postcode 3"
	RegionColumn   = "Region Name"
)

// Builder accumulates the region of every outer postcode and the distinct
// regions in first-seen order. It implements reader.RowHandler.
type Builder struct {
	regionByOuter map[string]string
	regions       []string
	seen          map[string]struct{}
	rows          int64
	logger        *slog.Logger
}

// NewBuilder returns an empty Builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		regionByOuter: make(map[string]string),
		seen:          make(map[string]struct{}),
		logger:        logger,
	}
}

// Ingest records the region of the row's outer postcode. Rows with an
// empty region are ignored.
func (b *Builder) Ingest(row reader.Row) error {
	postcode, err := row.Value(PostcodeColumn)
	if err != nil {
		return err
	}
	region, err := row.Value(RegionColumn)
	if err != nil {
		return err
	}
	b.rows++

	if region == "" {
		b.logger.Debug("skipping postcode without region",
			slog.String("postcode", postcode),
			slog.Int64("line", row.Line()))
		return nil
	}

	b.regionByOuter[Outer(postcode)] = region
	if _, ok := b.seen[region]; !ok {
		b.seen[region] = struct{}{}
		b.regions = append(b.regions, region)
	}
	return nil
}

// RegionFor returns the region of a full or outer postcode. A postcode with
// no mapping is an error, not an empty result.
func (b *Builder) RegionFor(postcode string) (string, error) {
	outer := Outer(postcode)
	region, ok := b.regionByOuter[outer]
	if !ok {
		return "", apperrors.UnknownPostcode(outer)
	}
	return region, nil
}

// TotalEntries returns the number of outer postcodes mapped so far.
func (b *Builder) TotalEntries() int { return len(b.regionByOuter) }

// Regions returns the distinct regions in the order they were first seen.
func (b *Builder) Regions() []string {
	return append([]string(nil), b.regions...)
}

// Rows returns the number of rows ingested, including skipped ones.
func (b *Builder) Rows() int64 { return b.rows }

// Outer returns the part of a postcode before the first whitespace.
func Outer(postcode string) string {
	if i := strings.IndexFunc(postcode, unicode.IsSpace); i >= 0 {
		return postcode[:i]
	}
	return postcode
}
