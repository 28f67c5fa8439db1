package validation

import (
	"log"

	"github.com/fraudsight/fraud-pipeline/internal/config"
	"github.com/fraudsight/fraud-pipeline/internal/gate"
	"github.com/fraudsight/fraud-pipeline/internal/models"
)

// Service orchestrates the raw-data schema validation stage: every
// configured source is checked, all outcomes are handed to the gate, and the
// gate decides whether the pipeline may proceed.
type Service struct {
	cfg *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Execute runs all raw-source checks and the stage gate. It returns a
// ValidationFailure when any hard check fails.
func (s *Service) Execute() error {
	sv := s.cfg.SchemaValidation

	log.Println("Starting raw-data schema validation...")

	var outcomes []models.Outcome

	outcomes = append(outcomes, CheckCSVColumns(
		"aaer_csv_schema", s.cfg.Data.Raw.AAER, s.cfg.Delimiter(), sv.AAERColumns))

	if s.cfg.Data.Raw.Labels != "" {
		outcomes = append(outcomes, CheckJSONMapKeys(
			"labels_json_schema", s.cfg.Data.Raw.Labels, sv.LabelsCriticalKeys, sv.SampleSize))
	}

	outcomes = append(outcomes, CheckJSONListKeys(
		"filings_json_schema", s.cfg.Data.Raw.FirmYearsLabels, sv.FilingsCriticalKeys, sv.SampleSize))

	if s.cfg.Data.Raw.Features != "" {
		requiredKeys := sv.FirmYearsCriticalKeys
		if sv.RequireAllKeys {
			requiredKeys = sv.FirmYearsRequiredKeys
		}
		outcomes = append(outcomes, CheckJSONMapKeys(
			"firm_years_json_schema", s.cfg.Data.Raw.Features, requiredKeys, sv.SampleSize))
		outcomes = append(outcomes, CheckNestedCoverage(
			"firm_years_ratio_coverage", s.cfg.Data.Raw.Features, "financial_ratios",
			sv.FinancialRatioFeatures, sv.RatioCoverageThreshold, sv.SampleSize,
			"mda_text", sv.MinTextLength))
	}

	g := gate.New("schema_validation", s.cfg.Data.Interim.SchemaValidation, s.cfg.Reports.ValidationReport, sv.FailOnSoft)
	return g.Run(outcomes)
}
