package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"rxcli/internal/config"
	apperrors "rxcli/internal/errors"
	"rxcli/internal/report"
)

// SpenderRecord is a row of top_spenders.parquet.
type SpenderRecord struct {
	Rank     int32   `parquet:"rank"`
	Postcode string  `parquet:"postcode"`
	Total    float64 `parquet:"total"`
}

// RegionMeanRecord is a row of regional_means.parquet. Difference and
// Comparison are null when there is no national mean.
type RegionMeanRecord struct {
	Region      string   `parquet:"region"`
	AverageCost float64  `parquet:"average_cost"`
	Difference  *float64 `parquet:"difference,optional"`
	Comparison  *string  `parquet:"comparison,optional"`
}

// AntidepressantRecord is a row of antidepressants.parquet.
type AntidepressantRecord struct {
	Region string `parquet:"region"`
	Items  int64  `parquet:"items"`
}

// ParquetWriter writes the per-row aggregates as Parquet files.
type ParquetWriter struct {
	paths *config.Paths
	count int
}

// NewParquetWriter creates a new Parquet exporter
func NewParquetWriter(paths *config.Paths) *ParquetWriter {
	return &ParquetWriter{paths: paths}
}

// Export writes top_spenders, regional_means and antidepressants Parquet
// files into dir.
func (w *ParquetWriter) Export(dir string, s report.Summary) error {
	if w.paths != nil {
		dir = w.paths.Resolve(dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	spenders := make([]SpenderRecord, 0, len(s.TopSpenders))
	for i, sp := range s.TopSpenders {
		spenders = append(spenders, SpenderRecord{Rank: int32(i + 1), Postcode: sp.Postcode, Total: sp.Total})
	}
	if err := w.write(filepath.Join(dir, TopSpendersTable+".parquet"), func(f *os.File) (int, error) {
		return writeRecords(f, spenders)
	}); err != nil {
		return err
	}

	means := make([]RegionMeanRecord, 0, len(s.RegionalMeans))
	for _, rv := range s.RegionalMeans {
		rec := RegionMeanRecord{Region: rv.Region, AverageCost: rv.Value}
		if !s.NationalMeanMissing {
			gap, cmp := report.Compare(s.NationalMean, rv.Value)
			label := string(cmp)
			rec.Difference, rec.Comparison = &gap, &label
		}
		means = append(means, rec)
	}
	if err := w.write(filepath.Join(dir, RegionalMeansTable+".parquet"), func(f *os.File) (int, error) {
		return writeRecords(f, means)
	}); err != nil {
		return err
	}

	anti := make([]AntidepressantRecord, 0, len(s.Antidepressants))
	for _, rc := range s.Antidepressants {
		anti = append(anti, AntidepressantRecord{Region: rc.Region, Items: int64(rc.Count)})
	}
	return w.write(filepath.Join(dir, AntidepressantsTable+".parquet"), func(f *os.File) (int, error) {
		return writeRecords(f, anti)
	})
}

// Count returns the number of records written so far.
func (w *ParquetWriter) Count() int {
	return w.count
}

func (w *ParquetWriter) write(path string, fill func(*os.File) (int, error)) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewExportError("failed to create parquet file", err).WithContext("path", path)
	}

	n, err := fill(file)
	if err != nil {
		file.Close()
		return apperrors.NewExportError("failed to write parquet file", err).WithContext("path", path)
	}
	if err := file.Close(); err != nil {
		return apperrors.NewExportError("failed to close parquet file", err).WithContext("path", path)
	}

	w.count += n
	slog.Info("Wrote parquet file",
		slog.String("path", path),
		slog.Int("record_count", n))
	return nil
}

func writeRecords[T any](file *os.File, records []T) (int, error) {
	writer := parquet.NewGenericWriter[T](file,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
		parquet.CreatedBy(config.AppName, config.AppVersion, ""),
	)

	n, err := writer.Write(records)
	if err != nil {
		writer.Close()
		return n, fmt.Errorf("failed to write parquet records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return n, fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return n, nil
}
