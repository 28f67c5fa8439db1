// Package config loads the pipeline configuration from params.yaml once at
// process start. The resulting value is passed explicitly into every
// component; there is no ambient global configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fraudsight/fraud-pipeline/internal/models"
)

// DefaultParamsFile is used when the caller does not name a configuration file.
const DefaultParamsFile = "params.yaml"

type RawPaths struct {
	AAER            string `yaml:"aaer"`
	Labels          string `yaml:"labels"`
	Features        string `yaml:"features"`
	FirmYearsLabels string `yaml:"firm_years_labels"`
}

type InterimPaths struct {
	FirmYearsWithLabels string `yaml:"firm_years_with_labels"`
	SchemaValidation    string `yaml:"schema_validation"`
}

type DataPaths struct {
	Raw     RawPaths     `yaml:"raw"`
	Interim InterimPaths `yaml:"interim"`
}

type ReportPaths struct {
	ValidationReport string `yaml:"validation_report"`
	DatasetReport    string `yaml:"dataset_report"`
	DatasetMarker    string `yaml:"dataset_marker"`
}

type SchemaValidation struct {
	CSVDelimiter           string   `yaml:"csv_delimiter"`
	SampleSize             int      `yaml:"sample_size"`
	RequireAllKeys         bool     `yaml:"require_all_keys"`
	AAERColumns            []string `yaml:"aaer_columns"`
	LabelsCriticalKeys     []string `yaml:"labels_critical_keys"`
	FirmYearsRequiredKeys  []string `yaml:"firm_years_required_keys"`
	FirmYearsCriticalKeys  []string `yaml:"firm_years_critical_keys"`
	FilingsCriticalKeys    []string `yaml:"filings_critical_keys"`
	FinancialRatioFeatures []string `yaml:"financial_ratio_features"`
	RatioCoverageThreshold float64  `yaml:"ratio_coverage_threshold"`
	MinTextLength          int      `yaml:"min_text_length"`
	FailOnSoft             bool     `yaml:"fail_on_soft"`
	DatasetColumns         []string `yaml:"dataset_columns"`
	URLPattern             string   `yaml:"url_pattern"`
	URLMostly              float64  `yaml:"url_mostly"`
	MDAMostly              float64  `yaml:"mda_mostly"`
	MDAMinLength           int      `yaml:"mda_min_length"`
	MDAMaxLength           int      `yaml:"mda_max_length"`
}

type Config struct {
	Data             DataPaths        `yaml:"data"`
	Reports          ReportPaths      `yaml:"reports"`
	SchemaValidation SchemaValidation `yaml:"schema_validation"`

	// Environment overlay, never read from params.yaml.
	DatabaseURL string `yaml:"-"`
	APIPort     string `yaml:"-"`
}

// Load reads and validates the configuration file, applies defaults and the
// environment overlay (DATABASE_URL, API_PORT).
func Load(paramsFile string) (*Config, error) {
	data, err := os.ReadFile(paramsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &models.ConfigurationError{Reason: fmt.Sprintf("configuration file not found: %s", paramsFile)}
		}
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("failed to read %s: %v", paramsFile, err)}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("invalid YAML in %s: %v", paramsFile, err)}
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.APIPort = os.Getenv("API_PORT")
	if cfg.APIPort == "" {
		cfg.APIPort = "8080"
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	sv := &c.SchemaValidation
	if sv.CSVDelimiter == "" {
		sv.CSVDelimiter = ";"
	}
	if sv.SampleSize <= 0 {
		sv.SampleSize = 5
	}
	if sv.RatioCoverageThreshold <= 0 {
		sv.RatioCoverageThreshold = 0.8
	}
	if sv.MinTextLength <= 0 {
		sv.MinTextLength = 10
	}
	if sv.URLPattern == "" {
		sv.URLPattern = "^https?://"
	}
	if sv.URLMostly <= 0 {
		sv.URLMostly = 0.99
	}
	if sv.MDAMostly <= 0 {
		sv.MDAMostly = 0.70
	}
	if sv.MDAMinLength <= 0 {
		sv.MDAMinLength = 100
	}
	if sv.MDAMaxLength <= 0 {
		sv.MDAMaxLength = 1_000_000
	}
}

func (c *Config) validate() error {
	var missing []string
	required := map[string]string{
		"data.raw.aaer":                       c.Data.Raw.AAER,
		"data.raw.firm_years_labels":          c.Data.Raw.FirmYearsLabels,
		"data.interim.firm_years_with_labels": c.Data.Interim.FirmYearsWithLabels,
		"data.interim.schema_validation":      c.Data.Interim.SchemaValidation,
		"reports.validation_report":           c.Reports.ValidationReport,
		"reports.dataset_report":              c.Reports.DatasetReport,
		"reports.dataset_marker":              c.Reports.DatasetMarker,
	}
	for key, value := range required {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(c.SchemaValidation.AAERColumns) == 0 {
		missing = append(missing, "schema_validation.aaer_columns")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &models.ConfigurationError{Reason: "missing required keys: " + strings.Join(missing, ", ")}
	}
	return nil
}

// Delimiter returns the configured CSV delimiter as a rune, falling back to
// the default for a Config constructed without Load.
func (c *Config) Delimiter() rune {
	if c.SchemaValidation.CSVDelimiter == "" {
		return ';'
	}
	return []rune(c.SchemaValidation.CSVDelimiter)[0]
}
