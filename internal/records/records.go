// Package records reads raw tabular and JSON data sources into in-memory
// record sequences. All readers are read-only and never touch the file
// contents beyond decoding.
package records

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fraudsight/fraud-pipeline/internal/models"
)

// ReadCSV reads a delimited file with a header row into an ordered sequence
// of records. Each record maps column name to the raw string value.
func ReadCSV(path string, delimiter rune) ([]string, []models.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, &models.NotFoundError{Path: path}
		}
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delimiter

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, &models.ParseError{Path: path, Err: fmt.Errorf("missing header row")}
	}
	if err != nil {
		return nil, nil, &models.ParseError{Path: path, Err: err}
	}

	var rows []models.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &models.ParseError{Path: path, Err: err}
		}

		record := make(models.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			}
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

// ReadJSONList reads a JSON array-of-objects into an ordered record sequence.
func ReadJSONList(path string) ([]models.Record, error) {
	top, err := readJSON(path)
	if err != nil {
		return nil, err
	}

	list, ok := top.([]any)
	if !ok {
		return nil, &models.FormatError{Path: path, Expected: "array at top level", Got: typeName(top)}
	}

	out := make([]models.Record, 0, len(list))
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, &models.FormatError{
				Path:     path,
				Expected: fmt.Sprintf("object at index %d", i),
				Got:      typeName(entry),
			}
		}
		out = append(out, models.Record(obj))
	}

	return out, nil
}

// ReadJSONMap reads a JSON object-of-objects into a record map plus the entry
// keys in sorted order, so that sampling the "first N" entries is
// deterministic across runs.
func ReadJSONMap(path string) (map[string]models.Record, []string, error) {
	top, err := readJSON(path)
	if err != nil {
		return nil, nil, err
	}

	m, ok := top.(map[string]any)
	if !ok {
		return nil, nil, &models.FormatError{Path: path, Expected: "object at top level", Got: typeName(top)}
	}

	out := make(map[string]models.Record, len(m))
	keys := make([]string, 0, len(m))
	for key, entry := range m {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, nil, &models.FormatError{
				Path:     path,
				Expected: fmt.Sprintf("object for entry %q", key),
				Got:      typeName(entry),
			}
		}
		out[key] = models.Record(obj)
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return out, keys, nil
}

func readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &models.NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &models.ParseError{Path: path, Err: err}
	}
	return top, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// CoerceID normalizes a firm identifier to an integer. Integers, floats with
// no fractional part and numeric strings coerce; anything else is treated as
// missing. Both the fraud index builder and the enricher use this same rule
// so that the join never matches on a value the index would have dropped.
func CoerceID(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}
