package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fraudsight/fraud-pipeline/internal/models"
	"github.com/fraudsight/fraud-pipeline/internal/records"
)

const (
	FILE_STATUS_DONE             = "DONE"
	FILE_STATUS_DONE_WITH_ERRORS = "DONE_WITH_ERRORS"
	FILE_STATUS_PROCESSING       = "PROCESSING"
	FILE_STATUS_FATAL            = "FATAL"
)

// Manager is the persistence boundary of the pipeline. The merge stage and
// the status API depend on this interface, never on pgx directly.
type Manager interface {
	CreateTables() error
	InsertLabeledFilings(filings []models.Record) (int64, error)
	InsertFileRecord(fileName string, processedAt time.Time, status string, checksum string) (int, error)
	UpdateFileStatus(fileID int, status string) error
	IsFileAlreadyProcessed(checksum string) (bool, error)
	Health() (*models.HealthInfo, error)
}

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	return dbpool, nil
}

type PostgresDBManager struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewPostgresDBManager(ctx context.Context, pool *pgxpool.Pool) *PostgresDBManager {
	return &PostgresDBManager{dbpool: pool, ctx: ctx}
}

func (m *PostgresDBManager) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS file_records (
			id SERIAL PRIMARY KEY,
			file_name VARCHAR(255) NOT NULL,
			processed_at TIMESTAMP NOT NULL,
			status VARCHAR(50) NOT NULL CHECK (status IN ('DONE', 'DONE_WITH_ERRORS', 'PROCESSING', 'FATAL')),
			checksum VARCHAR(64)
		);`,
		`CREATE TABLE IF NOT EXISTS labeled_filings (
			id BIGSERIAL PRIMARY KEY,
			cik INTEGER,
			name TEXT,
			filing_date VARCHAR(50),
			reporting_date VARCHAR(50),
			url TEXT,
			mda TEXT,
			is_fraud SMALLINT NOT NULL,
			fraud_aaer_no VARCHAR(100),
			fraud_start VARCHAR(50),
			fraud_end VARCHAR(50),
			fraud_case_datetime VARCHAR(100),
			fraud_release_no VARCHAR(100),
			file_id INTEGER
		);`,
	}

	for _, query := range queries {
		if _, err := m.dbpool.Exec(m.ctx, query); err != nil {
			return fmt.Errorf("error creating tables: %v", err)
		}
	}

	return nil
}

// filingColumns is the bulk-load column order; it must match the
// labeled_filings table definition.
var filingColumns = []string{
	"cik", "name", "filing_date", "reporting_date", "url", "mda",
	"is_fraud", "fraud_aaer_no", "fraud_start", "fraud_end",
	"fraud_case_datetime", "fraud_release_no", "file_id",
}

// InsertLabeledFilings bulk-loads enriched records with COPY.
func (m *PostgresDBManager) InsertLabeledFilings(filings []models.Record) (int64, error) {
	log.Printf("Bulk loading %d labeled filings", len(filings))

	copySource := pgx.CopyFromSlice(len(filings), func(i int) ([]interface{}, error) {
		rec := filings[i]

		var cik any
		if id, ok := records.CoerceID(rec["cik"]); ok {
			cik = id
		}

		isFraud, _ := records.CoerceID(rec["is_fraud"])

		return []interface{}{
			cik,
			asText(rec["name"]),
			asText(rec["filing_date"]),
			asText(rec["reporting_date"]),
			asText(rec["url"]),
			asText(rec["mda"]),
			isFraud,
			asText(rec["fraud_aaer_no"]),
			asText(rec["fraud_start"]),
			asText(rec["fraud_end"]),
			asText(rec["fraud_case_datetime"]),
			asText(rec["fraud_release_no"]),
			rec["file_id"],
		}, nil
	})

	count, err := m.dbpool.CopyFrom(m.ctx, pgx.Identifier{"labeled_filings"}, filingColumns, copySource)
	if err != nil {
		return 0, fmt.Errorf("unable to copy labeled filings: %v", err)
	}

	return count, nil
}

func (m *PostgresDBManager) InsertFileRecord(fileName string, processedAt time.Time, status string, checksum string) (int, error) {
	query := `
	INSERT INTO file_records (file_name, processed_at, status, checksum)
	VALUES ($1, $2, $3, $4)
	RETURNING id;`

	var fileID int
	err := m.dbpool.QueryRow(m.ctx, query, fileName, processedAt, status, checksum).Scan(&fileID)
	if err != nil {
		return 0, fmt.Errorf("error inserting file record: %v", err)
	}

	return fileID, nil
}

func (m *PostgresDBManager) UpdateFileStatus(fileID int, status string) error {
	query := `
	UPDATE file_records
	SET status = $1
	WHERE id = $2;`

	_, err := m.dbpool.Exec(m.ctx, query, status, fileID)
	if err != nil {
		return fmt.Errorf("error updating file status: %v", err)
	}

	return nil
}

func (m *PostgresDBManager) IsFileAlreadyProcessed(checksum string) (bool, error) {
	query := `
	SELECT id
	FROM file_records
	WHERE checksum = $1 AND status = 'DONE';`

	var id int
	err := m.dbpool.QueryRow(m.ctx, query, checksum).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error finding file record by checksum: %v", err)
	}

	return true, nil
}

func (m *PostgresDBManager) Health() (*models.HealthInfo, error) {
	info := &models.HealthInfo{}

	if err := m.dbpool.QueryRow(m.ctx, `SELECT COUNT(*) FROM labeled_filings;`).Scan(&info.LabeledFilings); err != nil {
		return nil, fmt.Errorf("error counting labeled filings: %w", err)
	}
	if err := m.dbpool.QueryRow(m.ctx, `SELECT COUNT(*) FROM file_records;`).Scan(&info.FileRecords); err != nil {
		return nil, fmt.Errorf("error counting file records: %w", err)
	}

	return info, nil
}

func asText(v any) any {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
