package validation

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/fraudsight/fraud-pipeline/internal/models"
	"github.com/fraudsight/fraud-pipeline/internal/records"
)

// Dataset checks run over the in-memory enriched records before the labeled
// dataset is handed to downstream stages. Checks with mostly < 1 are soft:
// they tolerate a bounded fraction of violations and only warn unless the
// gate is configured to promote them.

func mostlyOutcome(name string, passed, total int, mostly float64, what string) models.Outcome {
	if total == 0 {
		return pass(name, "no values to check")
	}
	ratio := float64(passed) / float64(total)
	severity := models.SeverityHard
	if mostly < 1 {
		severity = models.SeveritySoft
	}
	return models.Outcome{
		Check:    name,
		Passed:   ratio >= mostly,
		Severity: severity,
		Message:  fmt.Sprintf("%d/%d values (%.4f) %s; required mostly %.2f", passed, total, ratio, what, mostly),
	}
}

// CheckDatasetColumns asserts every required column appears somewhere in the
// dataset. All missing names are reported together.
func CheckDatasetColumns(name string, recs []models.Record, required []string) models.Outcome {
	actual := make(map[string]bool)
	for _, rec := range recs {
		for key := range rec {
			actual[key] = true
		}
	}

	var missing []string
	for _, col := range required {
		if !actual[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fail(name, "missing columns %v", missing)
	}
	return pass(name, "all %d required columns present across %d records", len(required), len(recs))
}

// CheckNotNull asserts at least a mostly-fraction of records carry a
// non-nil value for the field.
func CheckNotNull(name string, recs []models.Record, field string, mostly float64) models.Outcome {
	passed := 0
	for _, rec := range recs {
		if v, ok := rec[field]; ok && v != nil {
			passed++
		}
	}
	return mostlyOutcome(name, passed, len(recs), mostly, fmt.Sprintf("of %q are non-null", field))
}

// CheckValuesInSet asserts every non-null value of the field is one of the
// allowed values.
func CheckValuesInSet(name string, recs []models.Record, field string, allowed []any, mostly float64) models.Outcome {
	passed, total := 0, 0
	for _, rec := range recs {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		total++
		for _, a := range allowed {
			if v == a {
				passed++
				break
			}
		}
	}
	return mostlyOutcome(name, passed, total, mostly, fmt.Sprintf("of %q are in %v", field, allowed))
}

// CheckValueBetween asserts non-null numeric values of the field fall in
// [min, max]. Values are coerced with the shared identifier rule, so string
// and float forms of the same number are treated alike.
func CheckValueBetween(name string, recs []models.Record, field string, min, max int, mostly float64) models.Outcome {
	passed, total := 0, 0
	for _, rec := range recs {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		total++
		if n, ok := records.CoerceID(v); ok && n >= min && n <= max {
			passed++
		}
	}
	return mostlyOutcome(name, passed, total, mostly, fmt.Sprintf("of %q are between %d and %d", field, min, max))
}

// CheckMatchesRegex asserts non-null string values of the field match the
// pattern.
func CheckMatchesRegex(name string, recs []models.Record, field, pattern string, mostly float64) models.Outcome {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fail(name, "invalid pattern %q: %v", pattern, err)
	}

	passed, total := 0, 0
	for _, rec := range recs {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		total++
		if s, ok := v.(string); ok && re.MatchString(s) {
			passed++
		}
	}
	return mostlyOutcome(name, passed, total, mostly, fmt.Sprintf("of %q match %q", field, pattern))
}

// CheckLengthBetween asserts non-null string values of the field have a
// length in [min, max].
func CheckLengthBetween(name string, recs []models.Record, field string, min, max int, mostly float64) models.Outcome {
	passed, total := 0, 0
	for _, rec := range recs {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		total++
		if s, ok := v.(string); ok && len(s) >= min && len(s) <= max {
			passed++
		}
	}
	return mostlyOutcome(name, passed, total, mostly, fmt.Sprintf("length of %q between %d and %d", field, min, max))
}
