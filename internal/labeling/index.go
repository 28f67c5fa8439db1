// Package labeling builds the fraud lookup index from AAER enforcement
// cases and attaches fraud labels to firm-year filing records.
package labeling

import (
	"github.com/fraudsight/fraud-pipeline/internal/models"
	"github.com/fraudsight/fraud-pipeline/internal/records"
)

// BuildFraudIndex turns AAER case records into a lookup keyed by the coerced
// firm identifier. Records whose identifier is missing or non-coercible are
// dropped; the returned count lets the caller log them.
//
// On key collision the later record replaces the earlier one. Last write
// wins is the stated business rule: later AAER disclosures commonly
// supersede earlier ones for the same firm.
func BuildFraudIndex(rows []models.Record, idField string) (map[int]models.FraudCase, int) {
	index := make(map[int]models.FraudCase)
	dropped := 0

	for _, row := range rows {
		id, ok := records.CoerceID(row[idField])
		if !ok {
			dropped++
			continue
		}

		index[id] = models.FraudCase{
			AAERNo:       row["aaerNo"],
			FraudStart:   row["fraud_start"],
			FraudEnd:     row["fraud_end"],
			CaseDatetime: row["dateTime"],
			ReleaseNo:    row["releaseNo"],
		}
	}

	return index, dropped
}
