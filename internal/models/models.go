package models

import (
	"encoding/json"
	"fmt"
)

// Record is one raw or enriched data record. Values keep whatever type the
// source codec produced (strings for CSV fields, float64/string/nil for JSON).
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// FraudCase holds the retained metadata of one AAER enforcement action.
// Fields are `any` because values are copied verbatim from the source record
// and may be absent (nil).
type FraudCase struct {
	AAERNo       any `json:"aaerNo"`
	FraudStart   any `json:"fraud_start"`
	FraudEnd     any `json:"fraud_end"`
	CaseDatetime any `json:"dateTime"`
	ReleaseNo    any `json:"releaseNo"`
}

// Tally counts enrichment outcomes for one run.
type Tally struct {
	Fraud    int
	NonFraud int
}

func (t Tally) Total() int {
	return t.Fraud + t.NonFraud
}

// FraudRate returns the fraction of fraud records, or 0 for an empty tally.
func (t Tally) FraudRate() float64 {
	if t.Total() == 0 {
		return 0
	}
	return float64(t.Fraud) / float64(t.Total())
}

// Severity distinguishes hard checks (must pass for the gate to open) from
// soft "mostly" checks that only warn unless explicitly promoted.
type Severity int

const (
	SeverityHard Severity = iota
	SeveritySoft
)

func (s Severity) String() string {
	if s == SeveritySoft {
		return "soft"
	}
	return "hard"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "hard":
		*s = SeverityHard
	case "soft":
		*s = SeveritySoft
	default:
		return fmt.Errorf("unknown severity %q", str)
	}
	return nil
}

// Outcome is the result of one validation check.
type Outcome struct {
	Check    string   `json:"check"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// HealthInfo is what the status API reports about the database sink.
type HealthInfo struct {
	LabeledFilings int64 `json:"labeled_filings"`
	FileRecords    int64 `json:"file_records"`
}
