// Package exporter writes the analysis aggregates in tabular formats.
//
// The text report stays the primary output. The writers here are opt-in and
// produce one table per aggregate:
//
// CSVWriter: one CSV file per table, with a UTF-8 BOM for spreadsheet tools.
//
// XLSXWriter: a single workbook with one sheet per table.
//
// ParquetWriter: one zstd-compressed Parquet file per table.
//
// Example usage:
//
//	tables := exporter.Tables(summary)
//	err := exporter.NewCSVWriter(paths).Export("reports", tables)
package exporter
