package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"rxcli/internal/config"
	apperrors "rxcli/internal/errors"
)

// XLSXWriter writes all tables into one workbook, a sheet per table.
type XLSXWriter struct {
	paths *config.Paths
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(paths *config.Paths) *XLSXWriter {
	return &XLSXWriter{paths: paths}
}

// Export writes tables to the workbook at filePath, replacing any existing file.
func (w *XLSXWriter) Export(filePath string, tables []Table) error {
	fullPath := filePath
	if w.paths != nil {
		fullPath = w.paths.Resolve(filePath)
	}

	slog.Info("Writing XLSX workbook",
		slog.String("file_path", fullPath),
		slog.Int("sheet_count", len(tables)))

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return apperrors.NewExportError("failed to name sheet", err).WithContext("sheet", t.Name)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return apperrors.NewExportError("failed to add sheet", err).WithContext("sheet", t.Name)
		}

		if err := writeSheet(f, t); err != nil {
			return apperrors.NewExportError("failed to fill sheet", err).WithContext("sheet", t.Name)
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return apperrors.NewExportError("failed to save workbook", err).WithContext("path", fullPath)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	for r, record := range t.Records {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(record))
		for i, v := range record {
			row[i] = cellValue(v, t.IsNumeric(i))
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue stores cells of numeric columns as numbers so spreadsheet
// formulas work. Text columns are written as given, whatever they look like.
func cellValue(v string, numeric bool) interface{} {
	if !numeric {
		return v
	}
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
