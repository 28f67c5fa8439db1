package labeling

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fraudsight/fraud-pipeline/internal/config"
	"github.com/fraudsight/fraud-pipeline/internal/gate"
	"github.com/fraudsight/fraud-pipeline/internal/models"
	"github.com/fraudsight/fraud-pipeline/internal/records"
	"github.com/fraudsight/fraud-pipeline/internal/validation"
	"github.com/fraudsight/fraud-pipeline/pkg/checksum"
)

// DatasetSink persists the enriched dataset and the file-processing ledger.
// Satisfied by database.PostgresDBManager; a nil sink skips persistence
// entirely so the core pipeline runs without a database.
type DatasetSink interface {
	CreateTables() error
	InsertLabeledFilings(filings []models.Record) (int64, error)
	InsertFileRecord(fileName string, processedAt time.Time, status string, checksum string) (int, error)
	UpdateFileStatus(fileID int, status string) error
	IsFileAlreadyProcessed(checksum string) (bool, error)
}

// File ledger statuses, mirrored by the file_records table constraint.
const (
	fileStatusDone       = "DONE"
	fileStatusProcessing = "PROCESSING"
	fileStatusFatal      = "FATAL"
)

// MergeService orchestrates the label-enrichment stage: build the fraud
// index from the AAER source, join it onto the filings, persist the labeled
// dataset, and gate the result.
type MergeService struct {
	cfg  *config.Config
	sink DatasetSink
}

func NewMergeService(cfg *config.Config, sink DatasetSink) *MergeService {
	return &MergeService{cfg: cfg, sink: sink}
}

// Execute runs the merge stage end to end. Any fatal error aborts before the
// dataset gate runs; a zero-record enrichment is fatal and writes nothing.
func (s *MergeService) Execute() error {
	log.Println("Starting data merge stage (AAER cases + firm-year filings)...")

	index, err := s.buildIndex()
	if err != nil {
		return err
	}

	filings, err := records.ReadJSONList(s.cfg.Data.Raw.FirmYearsLabels)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d firm-year filing records", len(filings))

	enriched, tally := Enrich(filings, index)
	if tally.Total() == 0 {
		return &models.EmptyResultError{Stage: "merge"}
	}
	log.Printf("Labeling complete: %d fraud, %d non-fraud (fraud rate %.4f)",
		tally.Fraud, tally.NonFraud, tally.FraudRate())

	outputPath := s.cfg.Data.Interim.FirmYearsWithLabels
	if err := WriteDataset(outputPath, enriched, s.cfg.Delimiter()); err != nil {
		return err
	}
	log.Printf("Saved labeled dataset to %s (%d rows)", outputPath, len(enriched))

	if s.sink != nil {
		if err := s.load(enriched); err != nil {
			return err
		}
	}

	return s.runDatasetGate(enriched)
}

func (s *MergeService) buildIndex() (map[int]models.FraudCase, error) {
	aaerPath := s.cfg.Data.Raw.AAER
	header, rows, err := records.ReadCSV(aaerPath, s.cfg.Delimiter())
	if err != nil {
		return nil, err
	}

	hasCIK := false
	for _, col := range header {
		if col == identifierField {
			hasCIK = true
			break
		}
	}
	if !hasCIK {
		return nil, &models.FormatError{Path: aaerPath, Expected: "column \"cik\"", Got: "no such column"}
	}

	index, dropped := BuildFraudIndex(rows, identifierField)
	log.Printf("AAER CSV: %d rows, %d dropped (missing or invalid cik), %d unique CIKs indexed",
		len(rows), dropped, len(index))

	return index, nil
}

// load bulk-inserts the enriched records and tracks the input file on the
// processing ledger, skipping files already processed with the same checksum.
func (s *MergeService) load(enriched []models.Record) error {
	inputPath := s.cfg.Data.Raw.FirmYearsLabels

	sum, err := checksum.GetFileChecksum(inputPath)
	if err != nil {
		return err
	}

	done, err := s.sink.IsFileAlreadyProcessed(sum)
	if err != nil {
		return err
	}
	if done {
		log.Printf("Input %s already processed (checksum %s), skipping database load", inputPath, sum)
		return nil
	}

	if err := s.sink.CreateTables(); err != nil {
		return err
	}

	fileID, err := s.sink.InsertFileRecord(filepath.Base(inputPath), time.Now(), fileStatusProcessing, sum)
	if err != nil {
		return err
	}

	count, err := s.sink.InsertLabeledFilings(enriched)
	if err != nil {
		if statusErr := s.sink.UpdateFileStatus(fileID, fileStatusFatal); statusErr != nil {
			log.Printf("Failed to update status for fileID %d: %v", fileID, statusErr)
		}
		return err
	}
	log.Printf("Loaded %d labeled filings into database", count)

	return s.sink.UpdateFileStatus(fileID, fileStatusDone)
}

// runDatasetGate applies the post-enrichment contract before downstream
// stages may consume the dataset.
func (s *MergeService) runDatasetGate(enriched []models.Record) error {
	sv := s.cfg.SchemaValidation

	outcomes := []models.Outcome{
		validation.CheckDatasetColumns("dataset_columns", enriched, sv.DatasetColumns),
		validation.CheckNotNull("cik_not_null", enriched, "cik", 1.0),
		validation.CheckValueBetween("cik_range", enriched, "cik", 0, 9_999_999, 1.0),
		validation.CheckNotNull("is_fraud_not_null", enriched, FieldIsFraud, 1.0),
		validation.CheckValuesInSet("is_fraud_values", enriched, FieldIsFraud, []any{0, 1}, 1.0),
		validation.CheckMatchesRegex("url_format", enriched, "url", sv.URLPattern, sv.URLMostly),
		validation.CheckNotNull("mda_not_null", enriched, "mda", sv.MDAMostly),
		validation.CheckLengthBetween("mda_length", enriched, "mda", sv.MDAMinLength, sv.MDAMaxLength, sv.MDAMostly),
	}

	g := gate.New("labeled_dataset", s.cfg.Reports.DatasetMarker, s.cfg.Reports.DatasetReport, sv.FailOnSoft)
	return g.Run(outcomes)
}
