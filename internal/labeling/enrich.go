package labeling

import (
	"github.com/fraudsight/fraud-pipeline/internal/models"
	"github.com/fraudsight/fraud-pipeline/internal/records"
)

// The enrichment fields attached to every output record. When a filing does
// not match the fraud index, all audit fields are explicitly nil, never
// omitted.
const (
	FieldIsFraud      = "is_fraud"
	FieldAAERNo       = "fraud_aaer_no"
	FieldFraudStart   = "fraud_start"
	FieldFraudEnd     = "fraud_end"
	FieldCaseDatetime = "fraud_case_datetime"
	FieldReleaseNo    = "fraud_release_no"
	identifierField   = "cik"
)

// EnrichmentFields lists the derived fields in their stable output order.
var EnrichmentFields = []string{
	FieldIsFraud,
	FieldAAERNo,
	FieldFraudStart,
	FieldFraudEnd,
	FieldCaseDatetime,
	FieldReleaseNo,
}

// Enrich joins filing records against the fraud index. Every input record is
// shallow-copied; the caller's sequence is never mutated. Output order
// matches input order and the result is deterministic for identical inputs.
func Enrich(filings []models.Record, index map[int]models.FraudCase) ([]models.Record, models.Tally) {
	enriched := make([]models.Record, 0, len(filings))
	var tally models.Tally

	for _, filing := range filings {
		e := filing.Clone()

		id, ok := records.CoerceID(e[identifierField])
		if fraudCase, found := index[id]; ok && found {
			e[FieldIsFraud] = 1
			e[FieldAAERNo] = fraudCase.AAERNo
			e[FieldFraudStart] = fraudCase.FraudStart
			e[FieldFraudEnd] = fraudCase.FraudEnd
			e[FieldCaseDatetime] = fraudCase.CaseDatetime
			e[FieldReleaseNo] = fraudCase.ReleaseNo
			tally.Fraud++
		} else {
			e[FieldIsFraud] = 0
			e[FieldAAERNo] = nil
			e[FieldFraudStart] = nil
			e[FieldFraudEnd] = nil
			e[FieldCaseDatetime] = nil
			e[FieldReleaseNo] = nil
			tally.NonFraud++
		}

		enriched = append(enriched, e)
	}

	return enriched, tally
}
