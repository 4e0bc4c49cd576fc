// Package reader reads comma-delimited text files row by row.
//
// A Reader is built from a file path and either a declared list of column
// names or nil, in which case the column names are taken from the file's
// first line. Column names resolve to zero-based positions through
// ColumnIndex, and every Row produced by the reader resolves names the same
// way.
//
// # Strategies
//
// Three iteration strategies are available and one is chosen before
// iteration starts:
//
//	Structured  quote-aware records via encoding/csv. A derived header line
//	            is consumed and not returned.
//	Chunked     large fixed-size reads (first line width x 15000 bytes),
//	            split on newline and then on the delimiter. Without a filter,
//	            every non-blank line must have as many fields as the header
//	            or iteration fails with a malformed-row error.
//	Sequential  one line at a time, split on the delimiter, no checks. The
//	            header line is returned like any other line.
//
// The chunk size assumes lines of roughly uniform width. It is only a
// buffer size: lines that straddle two chunks are joined before splitting.
//
// # Line counting
//
// LineCount reports how many lines or records have been read so far across
// every iteration of the reader. It never decreases.
//
// # Handlers
//
// Process drives an iteration into a RowHandler, the interface implemented
// by the postcode, address and prescription builders.
package reader
