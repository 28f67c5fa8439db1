package server

import (
	"encoding/json"
	"net/http"

	"github.com/fraudsight/fraud-pipeline/internal/config"
	"github.com/fraudsight/fraud-pipeline/internal/database"
)

// StatusService exposes pipeline health and configuration over HTTP. It is
// a thin collaborator: it only reads artifacts the pipeline produced.
type StatusService struct {
	DBManager database.Manager
	Config    *config.Config
}

func NewStatusService(dbManager database.Manager, cfg *config.Config) *StatusService {
	return &StatusService{DBManager: dbManager, Config: cfg}
}

func (h *StatusService) GetHealth(w http.ResponseWriter, r *http.Request) {
	info, err := h.DBManager.Health()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": info,
	})
}

// GetConfig echoes safe configuration values only; the database URL and any
// other secrets are never exposed.
func (h *StatusService) GetConfig(w http.ResponseWriter, r *http.Request) {
	sv := h.Config.SchemaValidation

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"raw": map[string]any{
				"aaer":              h.Config.Data.Raw.AAER,
				"labels":            h.Config.Data.Raw.Labels,
				"features":          h.Config.Data.Raw.Features,
				"firm_years_labels": h.Config.Data.Raw.FirmYearsLabels,
			},
			"interim": map[string]any{
				"firm_years_with_labels": h.Config.Data.Interim.FirmYearsWithLabels,
				"schema_validation":      h.Config.Data.Interim.SchemaValidation,
			},
		},
		"schema_validation": map[string]any{
			"csv_delimiter":            sv.CSVDelimiter,
			"sample_size":              sv.SampleSize,
			"ratio_coverage_threshold": sv.RatioCoverageThreshold,
			"fail_on_soft":             sv.FailOnSoft,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
