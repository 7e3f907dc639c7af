package decision

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidahmann/subscreen/internal/crypto"
	"github.com/davidahmann/subscreen/internal/ledger"
	"github.com/davidahmann/subscreen/internal/review"
	"github.com/davidahmann/subscreen/pkg/types"
)

type RulesetRef struct {
	RulesetID      string
	RulesetVersion string
	RulesetHash    string
}

// DecisionID computes the content digest of a decision within its run.
func DecisionID(runID string, position int, rec types.DecisionRecord) (string, error) {
	var missing []any
	if rec.MissingFields != nil {
		missing = make([]any, len(rec.MissingFields))
		for i, f := range rec.MissingFields {
			missing[i] = f
		}
	}

	view := map[string]any{
		"run_id":            runID,
		"position":          position,
		"questionnaire_id":  QuestionnaireKey(rec.QuestionnaireID),
		"decision":          string(rec.Decision),
		"missing_fields":    missing,
		"escalation_reason": rec.EscalationReason,
	}

	canonical, err := crypto.Canonicalize(view)
	if err != nil {
		return "", err
	}
	return crypto.DigestWithPrefix(canonical), nil
}

// QuestionnaireKey renders a questionnaire id as a string for storage and
// hashing. Absent ids yield nil.
func QuestionnaireKey(id any) *string {
	if id == nil {
		return nil
	}
	var key string
	switch v := id.(type) {
	case string:
		key = v
	case json.Number:
		key = v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			key = fmt.Sprint(v)
		} else {
			key = string(encoded)
		}
	}
	return &key
}

// BuildRun converts a review batch into ledger rows.
func BuildRun(batch review.Batch, rs RulesetRef) (ledger.RunRecord, []ledger.DecisionEntry, error) {
	createdAt := batch.CreatedAt.UTC().Format(time.RFC3339)
	run := ledger.RunRecord{
		RunID:          batch.RunID,
		Mode:           string(batch.Mode),
		RulesetID:      rs.RulesetID,
		RulesetVersion: rs.RulesetVersion,
		RulesetHash:    rs.RulesetHash,
		Total:          batch.Summary.Total,
		Approved:       batch.Summary.Approved,
		Returned:       batch.Summary.Returned,
		Escalated:      batch.Summary.Escalated,
		CreatedAt:      createdAt,
	}

	entries := make([]ledger.DecisionEntry, 0, len(batch.Outcomes))
	for _, outcome := range batch.Outcomes {
		id, err := DecisionID(batch.RunID, outcome.Position, outcome.Decision)
		if err != nil {
			return ledger.RunRecord{}, nil, fmt.Errorf("decision %d: %w", outcome.Position, err)
		}
		body, err := json.Marshal(outcome.Decision)
		if err != nil {
			return ledger.RunRecord{}, nil, fmt.Errorf("decision %d: %w", outcome.Position, err)
		}
		entries = append(entries, ledger.DecisionEntry{
			RunID:           batch.RunID,
			Position:        outcome.Position,
			DecisionID:      id,
			QuestionnaireID: QuestionnaireKey(outcome.Decision.QuestionnaireID),
			Decision:        string(outcome.Decision.Decision),
			Stage:           string(outcome.Stage),
			BodyJSON:        body,
			CreatedAt:       createdAt,
		})
	}
	return run, entries, nil
}
