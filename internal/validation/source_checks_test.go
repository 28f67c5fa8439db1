package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudsight/fraud-pipeline/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheckCSVColumns(t *testing.T) {
	required := []string{"cik", "aaerNo", "fraud_start"}

	t.Run("should pass for a valid file with all required columns", func(t *testing.T) {
		path := writeFile(t, "ok.csv", "cik;aaerNo;fraud_start;extra\n100;A1;2005-01-01;x\n")

		outcome := CheckCSVColumns("aaer", path, ';', required)

		assert.True(t, outcome.Passed)
		assert.Equal(t, models.SeverityHard, outcome.Severity)
	})

	t.Run("should list every missing column in one message", func(t *testing.T) {
		path := writeFile(t, "missing.csv", "cik;other\n100;x\n")

		outcome := CheckCSVColumns("aaer", path, ';', required)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, "aaerNo")
		assert.Contains(t, outcome.Message, "fraud_start")
	})

	t.Run("should fail for a file with a header but no rows", func(t *testing.T) {
		path := writeFile(t, "headeronly.csv", "cik;aaerNo;fraud_start\n")

		outcome := CheckCSVColumns("aaer", path, ';', required)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, "empty")
	})

	t.Run("should fail instead of error for a missing file", func(t *testing.T) {
		outcome := CheckCSVColumns("aaer", filepath.Join(t.TempDir(), "nope.csv"), ';', required)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, "file not found")
	})
}

func TestCheckJSONListKeys(t *testing.T) {
	t.Run("should pass when sampled entries carry the required keys", func(t *testing.T) {
		path := writeFile(t, "list.json", `[{"cik": 1}, {"cik": 2}]`)

		outcome := CheckJSONListKeys("filings", path, []string{"cik"}, 5)

		assert.True(t, outcome.Passed)
	})

	t.Run("should fail for an empty list", func(t *testing.T) {
		path := writeFile(t, "empty.json", `[]`)

		outcome := CheckJSONListKeys("filings", path, []string{"cik"}, 5)

		assert.False(t, outcome.Passed)
	})

	t.Run("should fail naming the entry and missing keys", func(t *testing.T) {
		path := writeFile(t, "bad.json", `[{"cik": 1}, {"name": "x"}]`)

		outcome := CheckJSONListKeys("filings", path, []string{"cik"}, 5)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, "entry 1")
		assert.Contains(t, outcome.Message, "cik")
	})

	t.Run("should only inspect the sample prefix", func(t *testing.T) {
		path := writeFile(t, "long.json", `[{"cik": 1}, {"cik": 2}, {"oops": true}]`)

		outcome := CheckJSONListKeys("filings", path, []string{"cik"}, 2)

		assert.True(t, outcome.Passed)
	})

	t.Run("should fail for a top-level object", func(t *testing.T) {
		path := writeFile(t, "map.json", `{"a": {}}`)

		outcome := CheckJSONListKeys("filings", path, []string{"cik"}, 5)

		assert.False(t, outcome.Passed)
	})
}

func TestCheckJSONMapKeys(t *testing.T) {
	t.Run("should sample entries in sorted key order", func(t *testing.T) {
		// Keys sort as a1, a2, z9: the defect in z9 is outside the sample.
		path := writeFile(t, "map.json", `{"z9": {"bad": 1}, "a1": {"fraud_label": 0}, "a2": {"fraud_label": 1}}`)

		outcome := CheckJSONMapKeys("labels", path, []string{"fraud_label"}, 2)

		assert.True(t, outcome.Passed)
	})

	t.Run("should fail naming the offending entry", func(t *testing.T) {
		path := writeFile(t, "map.json", `{"a": {"fraud_label": 0}, "b": {"other": 1}}`)

		outcome := CheckJSONMapKeys("labels", path, []string{"fraud_label"}, 5)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, `"b"`)
	})

	t.Run("should fail for an empty map", func(t *testing.T) {
		path := writeFile(t, "empty.json", `{}`)

		outcome := CheckJSONMapKeys("labels", path, []string{"fraud_label"}, 5)

		assert.False(t, outcome.Passed)
	})
}

func nestedEntry(t *testing.T, present int) string {
	t.Helper()
	ratios := make(map[string]float64, present)
	for i := 0; i < present; i++ {
		ratios[fmt.Sprintf("ratio_%03d", i)] = 1.0
	}
	entry := map[string]any{
		"cik":              "100",
		"mda_text":         "management discussion and analysis text",
		"financial_ratios": ratios,
	}
	data, err := json.Marshal(map[string]any{"firm_100_2005": entry})
	require.NoError(t, err)
	return string(data)
}

func expectedRatios(total int) []string {
	out := make([]string, total)
	for i := range out {
		out[i] = fmt.Sprintf("ratio_%03d", i)
	}
	return out
}

func TestCheckNestedCoverage(t *testing.T) {
	t.Run("should pass at exactly the threshold", func(t *testing.T) {
		path := writeFile(t, "firm_years.json", nestedEntry(t, 80))

		outcome := CheckNestedCoverage("ratios", path, "financial_ratios", expectedRatios(100), 0.8, 5, "mda_text", 10)

		assert.True(t, outcome.Passed, outcome.Message)
	})

	t.Run("should fail just below the threshold with ratio and missing subset", func(t *testing.T) {
		path := writeFile(t, "firm_years.json", nestedEntry(t, 79))

		outcome := CheckNestedCoverage("ratios", path, "financial_ratios", expectedRatios(100), 0.8, 5, "mda_text", 10)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, "0.7900")
		assert.Contains(t, outcome.Message, "ratio_099")
	})

	t.Run("should fail when the nested field is missing", func(t *testing.T) {
		path := writeFile(t, "firm_years.json", `{"firm_1": {"mda_text": "long enough text here"}}`)

		outcome := CheckNestedCoverage("ratios", path, "financial_ratios", expectedRatios(10), 0.8, 5, "mda_text", 10)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, "financial_ratios")
	})

	t.Run("should fail when the text field is too short", func(t *testing.T) {
		path := writeFile(t, "firm_years.json", `{"firm_1": {"mda_text": "tiny", "financial_ratios": {"ratio_000": 1}}}`)

		outcome := CheckNestedCoverage("ratios", path, "financial_ratios", []string{"ratio_000"}, 0.8, 5, "mda_text", 10)

		assert.False(t, outcome.Passed)
		assert.Contains(t, outcome.Message, "mda_text")
	})
}
