package pipeline

import (
	"context"
	"log/slog"
	"regexp"

	"rxcli/internal/address"
	"rxcli/internal/config"
	apperrors "rxcli/internal/errors"
	"rxcli/internal/exporter"
	"rxcli/internal/infrastructure"
	"rxcli/internal/postcode"
	"rxcli/internal/prescription"
	"rxcli/internal/report"
)

// Step and dataset identifiers.
const (
	PostcodesStep     = "postcodes"
	AddressesStep     = "addresses"
	PrescriptionsStep = "prescriptions"
	ReportStep        = "report"
	ExportStep        = "export"
)

// postcodeStep builds the outer-postcode to region lookup.
type postcodeStep struct{ r *Runner }

func (s *postcodeStep) ID() string   { return PostcodesStep }
func (s *postcodeStep) Name() string { return "Postcode lookup" }

func (s *postcodeStep) Execute(ctx context.Context, state *State) error {
	in := s.r.cfg.Input
	rd, err := s.r.newReader(in.PostcodeFile, nil, in.PostcodeStrategy, "")
	if err != nil {
		return err
	}

	builder := postcode.NewBuilder(s.r.componentLogger(PostcodesStep))
	if err := s.r.pass(ctx, PostcodesStep, rd, builder); err != nil {
		return err
	}

	state.Postcodes = builder
	state.setRows(PostcodesStep, rd.LineCount())
	infrastructure.RecordLookupSize(ctx, s.r.metrics, PostcodesStep, builder.TotalEntries())

	s.r.logger.Info("Postcode lookup built",
		slog.Int("entries", builder.TotalEntries()),
		slog.Int("regions", len(builder.Regions())))
	return nil
}

// addressStep builds the practice to postcode registry and counts the
// practices in the target location.
type addressStep struct{ r *Runner }

func (s *addressStep) ID() string   { return AddressesStep }
func (s *addressStep) Name() string { return "Practice addresses" }

func (s *addressStep) Execute(ctx context.Context, state *State) error {
	in := s.r.cfg.Input
	rd, err := s.r.newReader(in.AddressFile, config.AddressHeader, in.AddressStrategy, in.AddressFilter)
	if err != nil {
		return err
	}

	registry := address.NewRegistry(s.r.componentLogger(AddressesStep))
	registry.SetTargetLocation(s.r.cfg.Analysis.TargetLocation)
	if err := s.r.pass(ctx, AddressesStep, rd, registry); err != nil {
		return err
	}

	state.Addresses = registry
	state.setRows(AddressesStep, rd.LineCount())
	infrastructure.RecordLookupSize(ctx, s.r.metrics, AddressesStep, registry.Entries())
	infrastructure.RecordSkippedRows(ctx, s.r.metrics, AddressesStep, "field_count", registry.Skipped())

	s.r.logger.Info("Practice registry built",
		slog.Int("entries", registry.Entries()),
		slog.String("location", registry.TargetLocation()),
		slog.Int("location_count", registry.LocationCount()),
		slog.Int64("skipped", registry.Skipped()))
	return nil
}

// prescriptionStep runs the aggregator over the prescription log.
type prescriptionStep struct{ r *Runner }

func (s *prescriptionStep) ID() string   { return PrescriptionsStep }
func (s *prescriptionStep) Name() string { return "Prescription aggregates" }

func (s *prescriptionStep) Execute(ctx context.Context, state *State) error {
	if state.Postcodes == nil {
		return apperrors.NotInitialized("postcode lookup")
	}
	if state.Addresses == nil {
		return apperrors.NotInitialized("practice registry")
	}

	an := s.r.cfg.Analysis
	pattern, err := regexp.Compile(an.RegionalDrugPattern)
	if err != nil {
		return apperrors.NewConfigError("invalid regional drug pattern", err)
	}

	agg, err := prescription.NewAggregator(
		prescription.Targets{
			AverageCostDrug: an.AverageCostDrug,
			RegionalDrug:    pattern,
			Antidepressants: an.Antidepressants,
		},
		state.Addresses.PostcodeFor,
		state.Postcodes.RegionFor,
		state.Postcodes.Regions(),
		s.r.componentLogger(PrescriptionsStep),
	)
	if err != nil {
		return err
	}

	in := s.r.cfg.Input
	rd, err := s.r.newReader(in.PrescriptionFile, nil, in.PrescriptionStrategy, in.PrescriptionFilter)
	if err != nil {
		return err
	}
	if err := s.r.pass(ctx, PrescriptionsStep, rd, agg); err != nil {
		return err
	}

	state.Prescriptions = agg
	state.setRows(PrescriptionsStep, rd.LineCount())

	stats := agg.Stats()
	infrastructure.RecordSkippedRows(ctx, s.r.metrics, PrescriptionsStep, "non_numeric", stats.NonNumeric)
	infrastructure.RecordSkippedRows(ctx, s.r.metrics, PrescriptionsStep, "unknown_practice", stats.UnknownPractice)
	infrastructure.RecordSkippedRows(ctx, s.r.metrics, PrescriptionsStep, "unknown_region", stats.UnknownRegion)

	s.r.logger.Info("Prescriptions aggregated",
		slog.Int64("rows", stats.Rows),
		slog.Int64("non_numeric", stats.NonNumeric),
		slog.Int64("unknown_practice", stats.UnknownPractice),
		slog.Int64("unknown_region", stats.UnknownRegion))
	return nil
}

// reportStep collects the final figures and writes the text report.
type reportStep struct{ r *Runner }

func (s *reportStep) ID() string   { return ReportStep }
func (s *reportStep) Name() string { return "Text report" }

func (s *reportStep) Execute(ctx context.Context, state *State) error {
	if state.Prescriptions == nil || state.Addresses == nil {
		return apperrors.NotInitialized("prescription aggregates")
	}

	summary, err := s.r.buildSummary(state)
	if err != nil {
		return err
	}
	state.Summary = &summary

	path := s.r.cfg.Output.ReportFile
	f, err := s.r.files.Create(path)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeIO, "failed to create report file", err).
			WithContext("path", path)
	}
	if err := report.Write(f, summary); err != nil {
		f.Close()
		return apperrors.NewAppError(apperrors.ErrTypeIO, "failed to write report", err).
			WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeIO, "failed to close report", err).
			WithContext("path", path)
	}

	s.r.logger.Info("Report written", slog.String("path", s.r.files.Resolve(path)))
	return nil
}

// buildSummary reads every aggregate once. A figure without data is
// marked missing and logged, or fails the run under FailOnNoData.
func (r *Runner) buildSummary(state *State) (report.Summary, error) {
	an := r.cfg.Analysis
	agg := state.Prescriptions

	avg, avgErr := agg.AverageCost()
	if err := r.checkNoData(avgErr, "No rows for average cost", an.AverageCostDrug); err != nil {
		return report.Summary{}, err
	}

	national, natErr := agg.CostPerPrescription()
	if err := r.checkNoData(natErr, "No rows for national mean", an.RegionalDrugLabel); err != nil {
		return report.Summary{}, err
	}

	return report.Summary{
		Location:            an.TargetLocation,
		LocationCount:       state.Addresses.LocationCount(),
		AverageCostDrug:     an.AverageCostDrug,
		AverageCost:         avg,
		AverageCostMissing:  avgErr != nil,
		TopN:                an.TopSpenders,
		TopSpenders:         agg.DrainTopSpenders(an.TopSpenders),
		RegionalDrug:        an.RegionalDrugLabel,
		RegionalMeans:       agg.AveragePriceByRegion(),
		NationalMean:        national,
		NationalMeanMissing: natErr != nil,
		Antidepressants:     agg.AntidepressantCountByRegion(),
	}, nil
}

// checkNoData returns err when it is fatal for this run; a NoData error is
// only logged unless FailOnNoData is set.
func (r *Runner) checkNoData(err error, msg, drug string) error {
	if err == nil {
		return nil
	}
	if !apperrors.Is(err, apperrors.ErrNoData) || r.cfg.Analysis.FailOnNoData {
		return err
	}
	r.logger.Warn(msg, slog.String("drug", drug), slog.String("error", err.Error()))
	return nil
}

// exportStep writes the optional tabular outputs.
type exportStep struct{ r *Runner }

func (s *exportStep) ID() string   { return ExportStep }
func (s *exportStep) Name() string { return "Exports" }

func (s *exportStep) Execute(ctx context.Context, state *State) error {
	if state.Summary == nil {
		return apperrors.NotInitialized("report summary")
	}
	out := s.r.cfg.Output
	tables := exporter.Tables(*state.Summary)

	if out.CSVDir != "" {
		if err := exporter.NewCSVWriter(s.r.paths).Export(out.CSVDir, tables); err != nil {
			return err
		}
	}
	if out.XLSXFile != "" {
		if err := exporter.NewXLSXWriter(s.r.paths).Export(out.XLSXFile, tables); err != nil {
			return err
		}
	}
	if out.ParquetDir != "" {
		pw := exporter.NewParquetWriter(s.r.paths)
		if err := pw.Export(out.ParquetDir, *state.Summary); err != nil {
			return err
		}
		state.setRows(ExportStep, int64(pw.Count()))
		s.r.logger.Info("Parquet export written",
			slog.String("dir", s.r.paths.Resolve(out.ParquetDir)),
			slog.Int("records", pw.Count()))
	}
	return nil
}

func hasExports(out config.OutputConfig) bool {
	return out.CSVDir != "" || out.XLSXFile != "" || out.ParquetDir != ""
}
