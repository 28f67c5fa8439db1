// Package gate sequences validation checks for one pipeline stage and
// persists the go/no-go decision as durable artifacts: a JSON report of
// every outcome and, only on full success, a marker file consumed by the
// next stage as its precondition.
package gate

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fraudsight/fraud-pipeline/internal/models"
)

type State int

const (
	StatePending State = iota
	StateRunning
	StatePassed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StatePassed:
		return "PASSED"
	case StateFailed:
		return "FAILED"
	default:
		return "PENDING"
	}
}

// Report is the JSON artifact recording every check outcome of one run.
type Report struct {
	Stage       string           `json:"stage"`
	RunID       string           `json:"run_id"`
	ValidatedAt time.Time        `json:"validated_at"`
	Passed      bool             `json:"passed"`
	Outcomes    []models.Outcome `json:"outcomes"`
}

// Gate evaluates the outcomes of one stage. It is stateless across runs:
// every invocation re-evaluates from scratch, so the marker always reflects
// the current data.
type Gate struct {
	stage      string
	markerPath string
	reportPath string
	failOnSoft bool

	state State
	now   func() time.Time
}

func New(stage, markerPath, reportPath string, failOnSoft bool) *Gate {
	return &Gate{
		stage:      stage,
		markerPath: markerPath,
		reportPath: reportPath,
		failOnSoft: failOnSoft,
		state:      StatePending,
		now:        time.Now,
	}
}

func (g *Gate) State() State {
	return g.state
}

// Run aggregates the outcomes, writes the report, and either writes the
// marker (all hard checks passed) or removes any stale marker and returns a
// ValidationFailure. Soft failures are logged as warnings and do not close
// the gate unless the gate was configured to promote them.
func (g *Gate) Run(outcomes []models.Outcome) error {
	g.state = StateRunning
	runID := uuid.NewString()
	validatedAt := g.now().UTC()

	passed := true
	for _, o := range outcomes {
		if o.Passed {
			log.Printf("check PASSED: %s: %s", o.Check, o.Message)
			continue
		}
		if o.Severity == models.SeveritySoft && !g.failOnSoft {
			log.Printf("WARN: soft check failed: %s: %s", o.Check, o.Message)
			continue
		}
		log.Printf("check FAILED: %s: %s", o.Check, o.Message)
		passed = false
	}

	report := Report{
		Stage:       g.stage,
		RunID:       runID,
		ValidatedAt: validatedAt,
		Passed:      passed,
		Outcomes:    outcomes,
	}
	if err := g.writeReport(report); err != nil {
		return err
	}

	if !passed {
		g.state = StateFailed
		// A leftover marker from an earlier run must not signal success
		// for data that just failed.
		if err := os.Remove(g.markerPath); err != nil && !os.IsNotExist(err) {
			log.Printf("WARN: failed to remove stale marker %s: %v", g.markerPath, err)
		}
		return &models.ValidationFailure{Stage: g.stage, Outcomes: outcomes}
	}

	marker := fmt.Sprintf("schema validation passed\nstage: %s\nvalidated_at: %s\nrun_id: %s\n",
		g.stage, validatedAt.Format(time.RFC3339), runID)
	if err := writeFileAtomic(g.markerPath, []byte(marker)); err != nil {
		g.state = StateFailed
		return fmt.Errorf("failed to write marker %s: %w", g.markerPath, err)
	}

	g.state = StatePassed
	log.Printf("gate PASSED for stage %s, marker written to %s", g.stage, g.markerPath)
	return nil
}

func (g *Gate) writeReport(report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode validation report: %w", err)
	}
	if err := writeFileAtomic(g.reportPath, data); err != nil {
		return fmt.Errorf("failed to write validation report %s: %w", g.reportPath, err)
	}
	return nil
}

// writeFileAtomic writes to a temporary file in the target directory and
// renames it into place, so a crash mid-write never leaves a partial
// artifact that falsely signals success.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
