// Package prescription aggregates a prescription log in a single pass.
//
// An Aggregator is wired with two lookups borrowed from the address and
// postcode builders (practice code to postcode, postcode to region) and the
// list of known regions. Every ingested row feeds five independent
// aggregates:
//
//  1. the average actual cost of rows whose drug name contains a target
//     substring,
//  2. the total actual cost per practice postcode, ranked by
//     DrainTopSpenders,
//  3. the average unit cost (cost / items) per region of drugs matching a
//     regional pattern,
//  4. the national average unit cost for the same pattern,
//  5. the antidepressant item count per region.
//
// Rows whose practice or region cannot be resolved, or whose numeric
// fields do not parse, are left out of the affected aggregates without
// failing the pass.
//
// DrainTopSpenders removes the postcodes it returns. A second call yields
// the next postcodes down, not the same ranking again.
//
// Antidepressant matching checks whether the trimmed drug name is a
// substring of the configured whitelist string. Partial names such as
// "Venlafaxine" or "Hydrochloride" therefore match.
package prescription
