// Package pipeline runs a complete analysis: the two lookup passes, the
// prescription pass, then the text report and any configured exports.
//
// The postcode and address passes are independent and may run
// concurrently. The prescription pass starts only after both lookups are
// complete, since its aggregator reads from them on every row.
package pipeline
