// Package validation implements the schema and quality checks applied at
// every pipeline boundary. Each check is a pure function producing an
// Outcome; checks never short-circuit each other, so a single validation run
// surfaces every defect at once.
package validation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fraudsight/fraud-pipeline/internal/models"
	"github.com/fraudsight/fraud-pipeline/internal/records"
)

func pass(name, format string, args ...any) models.Outcome {
	return models.Outcome{Check: name, Passed: true, Severity: models.SeverityHard, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) models.Outcome {
	return models.Outcome{Check: name, Passed: false, Severity: models.SeverityHard, Message: fmt.Sprintf(format, args...)}
}

// sourceError maps reader errors onto a failed outcome instead of aborting,
// so sibling checks still run.
func sourceError(name string, err error) models.Outcome {
	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		return fail(name, "file not found: %s", notFound.Path)
	}
	return fail(name, "%v", err)
}

// CheckCSVColumns validates a delimited file: it must exist, parse, contain
// at least one data row, and carry every required column. Column order does
// not matter; the failure message lists every missing name.
func CheckCSVColumns(name, path string, delimiter rune, required []string) models.Outcome {
	header, rows, err := records.ReadCSV(path, delimiter)
	if err != nil {
		return sourceError(name, err)
	}

	if len(rows) == 0 {
		return fail(name, "file is empty (0 rows): %s", path)
	}

	actual := make(map[string]bool, len(header))
	for _, col := range header {
		actual[col] = true
	}

	var missing []string
	for _, col := range required {
		if !actual[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fail(name, "missing columns %v in %s", missing, path)
	}

	return pass(name, "valid CSV with %d rows, %d columns", len(rows), len(header))
}

// CheckJSONListKeys validates a JSON array-of-objects source: shape,
// non-emptiness, and required-key presence on a deterministic prefix sample
// of the first sampleSize entries.
func CheckJSONListKeys(name, path string, required []string, sampleSize int) models.Outcome {
	list, err := records.ReadJSONList(path)
	if err != nil {
		return sourceError(name, err)
	}

	if len(list) == 0 {
		return fail(name, "file is empty (0 entries): %s", path)
	}

	limit := sampleSize
	if limit > len(list) {
		limit = len(list)
	}
	for i := 0; i < limit; i++ {
		if missing := missingKeys(list[i], required); len(missing) > 0 {
			return fail(name, "entry %d missing keys %v", i, missing)
		}
	}

	return pass(name, "valid JSON list with %d entries", len(list))
}

// CheckJSONMapKeys validates a JSON object-of-objects source the same way.
// The sample is the first sampleSize entries in sorted key order, so the
// prefix is deterministic across runs.
func CheckJSONMapKeys(name, path string, required []string, sampleSize int) models.Outcome {
	entries, keys, err := records.ReadJSONMap(path)
	if err != nil {
		return sourceError(name, err)
	}

	if len(entries) == 0 {
		return fail(name, "file is empty (0 entries): %s", path)
	}

	limit := sampleSize
	if limit > len(keys) {
		limit = len(keys)
	}
	for _, key := range keys[:limit] {
		if missing := missingKeys(entries[key], required); len(missing) > 0 {
			return fail(name, "entry %q missing keys %v", key, missing)
		}
	}

	return pass(name, "valid JSON map with %d entries", len(entries))
}

// CheckNestedCoverage validates that sampled entries of a JSON
// object-of-objects carry a nested feature mapping covering at least the
// configured fraction of expected feature names, and that the free-text
// field is a non-trivial string. A coverage exactly at the threshold passes.
func CheckNestedCoverage(name, path, nestedField string, expected []string, threshold float64, sampleSize int, textField string, minTextLen int) models.Outcome {
	entries, keys, err := records.ReadJSONMap(path)
	if err != nil {
		return sourceError(name, err)
	}

	if len(entries) == 0 {
		return fail(name, "file is empty (0 entries): %s", path)
	}
	if len(expected) == 0 {
		return fail(name, "no expected feature names configured for field %q", nestedField)
	}

	limit := sampleSize
	if limit > len(keys) {
		limit = len(keys)
	}
	for _, key := range keys[:limit] {
		entry := entries[key]

		nested, ok := entry[nestedField]
		if !ok {
			return fail(name, "entry %q missing %q", key, nestedField)
		}
		features, ok := nested.(map[string]any)
		if !ok {
			return fail(name, "entry %q: %q is not an object", key, nestedField)
		}

		covered := 0
		var missing []string
		for _, feature := range expected {
			if _, ok := features[feature]; ok {
				covered++
			} else {
				missing = append(missing, feature)
			}
		}
		coverage := float64(covered) / float64(len(expected))
		if coverage < threshold {
			sort.Strings(missing)
			return fail(name, "entry %q covers %.4f of expected features (threshold %.2f); missing %v",
				key, coverage, threshold, missing)
		}

		if textField != "" {
			text, ok := entry[textField].(string)
			if !ok || len(text) < minTextLen {
				return fail(name, "entry %q has invalid or empty %q", key, textField)
			}
		}
	}

	return pass(name, "nested %q structure valid across %d sampled entries", nestedField, limit)
}

func missingKeys(rec models.Record, required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := rec[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
