package labeling

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fraudsight/fraud-pipeline/internal/config"
	"github.com/fraudsight/fraud-pipeline/internal/models"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) CreateTables() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSink) InsertLabeledFilings(filings []models.Record) (int64, error) {
	args := m.Called(filings)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSink) InsertFileRecord(fileName string, processedAt time.Time, status string, checksum string) (int, error) {
	args := m.Called(fileName, processedAt, status, checksum)
	return args.Int(0), args.Error(1)
}

func (m *MockSink) UpdateFileStatus(fileID int, status string) error {
	args := m.Called(fileID, status)
	return args.Error(0)
}

func (m *MockSink) IsFileAlreadyProcessed(checksum string) (bool, error) {
	args := m.Called(checksum)
	return args.Bool(0), args.Error(1)
}

func testConfig(t *testing.T, aaerCSV, filingsJSON string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Data.Raw.AAER = filepath.Join(dir, "aaer.csv")
	cfg.Data.Raw.FirmYearsLabels = filepath.Join(dir, "filings.json")
	cfg.Data.Interim.FirmYearsWithLabels = filepath.Join(dir, "interim", "labeled.csv")
	cfg.Data.Interim.SchemaValidation = filepath.Join(dir, "interim", ".schema_validated")
	cfg.Reports.ValidationReport = filepath.Join(dir, "reports", "schema.json")
	cfg.Reports.DatasetReport = filepath.Join(dir, "reports", "dataset.json")
	cfg.Reports.DatasetMarker = filepath.Join(dir, "interim", ".dataset_validated")
	cfg.SchemaValidation.CSVDelimiter = ";"
	cfg.SchemaValidation.SampleSize = 5
	cfg.SchemaValidation.DatasetColumns = []string{"cik", "is_fraud", "fraud_aaer_no"}
	cfg.SchemaValidation.URLPattern = "^https?://"
	cfg.SchemaValidation.URLMostly = 0.99
	cfg.SchemaValidation.MDAMostly = 0.70
	cfg.SchemaValidation.MDAMinLength = 100
	cfg.SchemaValidation.MDAMaxLength = 1_000_000

	require.NoError(t, os.WriteFile(cfg.Data.Raw.AAER, []byte(aaerCSV), 0o644))
	require.NoError(t, os.WriteFile(cfg.Data.Raw.FirmYearsLabels, []byte(filingsJSON), 0o644))

	return cfg
}

func readDataset(t *testing.T, path string) (header []string, rows [][]string) {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	all, err := reader.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	return all[0], all[1:]
}

func TestMergeService_Execute(t *testing.T) {
	aaerCSV := "cik;aaerNo;fraud_start;fraud_end;dateTime;releaseNo\n" +
		"100;A1;2005-01-01;2008-12-31;2009-03-01;R1\n" +
		"100;A2;2006-01-01;2009-12-31;2010-03-01;R2\n"

	t.Run("should label filings and write the dataset with markers", func(t *testing.T) {
		cfg := testConfig(t, aaerCSV, `[{"cik": 100}, {"cik": 200}]`)
		service := NewMergeService(cfg, nil)

		err := service.Execute()

		require.NoError(t, err)

		header, rows := readDataset(t, cfg.Data.Interim.FirmYearsWithLabels)
		require.Len(t, rows, 2)

		col := make(map[string]int, len(header))
		for i, name := range header {
			col[name] = i
		}

		// Collision policy: the later AAER record (A2) wins for cik 100.
		assert.Equal(t, "100", rows[0][col["cik"]])
		assert.Equal(t, "1", rows[0][col["is_fraud"]])
		assert.Equal(t, "A2", rows[0][col["fraud_aaer_no"]])
		assert.Equal(t, "2006-01-01", rows[0][col["fraud_start"]])

		assert.Equal(t, "200", rows[1][col["cik"]])
		assert.Equal(t, "0", rows[1][col["is_fraud"]])
		assert.Equal(t, "", rows[1][col["fraud_aaer_no"]])

		assert.FileExists(t, cfg.Reports.DatasetMarker)
		assert.FileExists(t, cfg.Reports.DatasetReport)
	})

	t.Run("should fail with EmptyResultError and write nothing for empty filings", func(t *testing.T) {
		cfg := testConfig(t, aaerCSV, `[]`)
		service := NewMergeService(cfg, nil)

		err := service.Execute()

		var emptyErr *models.EmptyResultError
		require.ErrorAs(t, err, &emptyErr)
		assert.NoFileExists(t, cfg.Data.Interim.FirmYearsWithLabels)
		assert.NoFileExists(t, cfg.Reports.DatasetMarker)
	})

	t.Run("should label a non-numeric identifier as non-fraud and fail the range gate", func(t *testing.T) {
		cfg := testConfig(t, aaerCSV, `[{"cik": "abc"}]`)
		service := NewMergeService(cfg, nil)

		err := service.Execute()

		// The dataset is still written before the gate rejects the stage.
		var failure *models.ValidationFailure
		require.ErrorAs(t, err, &failure)

		var rangeFailed bool
		for _, o := range failure.Outcomes {
			if o.Check == "cik_range" && !o.Passed {
				rangeFailed = true
			}
		}
		assert.True(t, rangeFailed, "cik_range must reject a non-coercible identifier")
		assert.NoFileExists(t, cfg.Reports.DatasetMarker)

		header, rows := readDataset(t, cfg.Data.Interim.FirmYearsWithLabels)
		col := make(map[string]int, len(header))
		for i, name := range header {
			col[name] = i
		}
		require.Len(t, rows, 1)
		assert.Equal(t, "0", rows[0][col["is_fraud"]])
	})

	t.Run("should fail when the AAER file has no cik column", func(t *testing.T) {
		cfg := testConfig(t, "id;aaerNo\n1;A1\n", `[{"cik": 100}]`)
		service := NewMergeService(cfg, nil)

		err := service.Execute()

		var formatErr *models.FormatError
		assert.ErrorAs(t, err, &formatErr)
	})

	t.Run("should load the dataset through the sink and track the file", func(t *testing.T) {
		cfg := testConfig(t, aaerCSV, `[{"cik": 100}, {"cik": 200}]`)
		sink := new(MockSink)
		sink.On("IsFileAlreadyProcessed", mock.AnythingOfType("string")).Return(false, nil).Once()
		sink.On("CreateTables").Return(nil).Once()
		sink.On("InsertFileRecord", "filings.json", mock.AnythingOfType("time.Time"), "PROCESSING", mock.AnythingOfType("string")).Return(7, nil).Once()
		sink.On("InsertLabeledFilings", mock.AnythingOfType("[]models.Record")).Return(int64(2), nil).Once()
		sink.On("UpdateFileStatus", 7, "DONE").Return(nil).Once()

		service := NewMergeService(cfg, sink)
		err := service.Execute()

		require.NoError(t, err)
		sink.AssertExpectations(t)
	})

	t.Run("should skip the database load when the checksum is already processed", func(t *testing.T) {
		cfg := testConfig(t, aaerCSV, `[{"cik": 100}]`)
		sink := new(MockSink)
		sink.On("IsFileAlreadyProcessed", mock.AnythingOfType("string")).Return(true, nil).Once()

		service := NewMergeService(cfg, sink)
		err := service.Execute()

		require.NoError(t, err)
		sink.AssertExpectations(t)
		sink.AssertNotCalled(t, "InsertLabeledFilings", mock.Anything)
	})
}
