package types

// Decision is the outcome of reviewing one questionnaire.
type Decision string

const (
	DecisionApprove  Decision = "Approve"
	DecisionReturn   Decision = "Return"
	DecisionEscalate Decision = "Escalate"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionReturn, DecisionEscalate:
		return true
	default:
		return false
	}
}

// DecisionRecord is the review result for a single questionnaire. Nil
// MissingFields and EscalationReason encode as JSON null.
type DecisionRecord struct {
	QuestionnaireID  any      `json:"questionnaire_id"`
	Decision         Decision `json:"decision"`
	MissingFields    []string `json:"missing_fields"`
	EscalationReason *string  `json:"escalation_reason"`
}

// Approve returns an approval for the given questionnaire id.
func Approve(questionnaireID any) DecisionRecord {
	return DecisionRecord{QuestionnaireID: questionnaireID, Decision: DecisionApprove}
}

// Return returns a resubmission decision listing the fields that failed.
func Return(questionnaireID any, missing []string) DecisionRecord {
	fields := make([]string, len(missing))
	copy(fields, missing)
	return DecisionRecord{QuestionnaireID: questionnaireID, Decision: DecisionReturn, MissingFields: fields}
}

// Escalate returns a human-review decision with reason.
func Escalate(questionnaireID any, reason string) DecisionRecord {
	return DecisionRecord{QuestionnaireID: questionnaireID, Decision: DecisionEscalate, EscalationReason: &reason}
}

// Reason returns the escalation reason or "" when none is set.
func (r DecisionRecord) Reason() string {
	if r.EscalationReason == nil {
		return ""
	}
	return *r.EscalationReason
}
