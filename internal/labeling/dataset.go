package labeling

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fraudsight/fraud-pipeline/internal/models"
)

// DatasetColumns returns the output column order for the enriched dataset:
// source columns sorted by name, then the enrichment fields in their fixed
// order. Deterministic for identical inputs.
func DatasetColumns(enriched []models.Record) []string {
	derived := make(map[string]bool, len(EnrichmentFields))
	for _, f := range EnrichmentFields {
		derived[f] = true
	}

	seen := make(map[string]bool)
	var source []string
	for _, rec := range enriched {
		for key := range rec {
			if !derived[key] && !seen[key] {
				seen[key] = true
				source = append(source, key)
			}
		}
	}
	sort.Strings(source)

	return append(source, EnrichmentFields...)
}

// WriteDataset persists the enriched records as a delimited dataset with a
// header row and one record per row. The file is written to a temporary path
// and atomically renamed so a crash mid-write never leaves a partial dataset
// behind.
func WriteDataset(path string, enriched []models.Record, delimiter rune) error {
	columns := DatasetColumns(enriched)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary dataset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	writer.Comma = delimiter

	if err := writer.Write(columns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dataset header: %w", err)
	}

	row := make([]string, len(columns))
	for _, rec := range enriched {
		for i, col := range columns {
			row[i] = formatValue(rec[col])
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write dataset row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary dataset file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}

	return nil
}

func formatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(n)
	}
}
