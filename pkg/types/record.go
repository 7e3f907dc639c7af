package types

import "strings"

const FieldQuestionnaireID = "questionnaire_id"

// Record is one questionnaire submission keyed by field name. Values are
// whatever the loader produced and may be of any type.
type Record map[string]any

// ID returns the questionnaire id, or nil when the record has none.
func (r Record) ID() any {
	return r[FieldQuestionnaireID]
}

// Blank reports whether field is absent, null, or a whitespace-only string.
func (r Record) Blank(field string) bool {
	value, ok := r[field]
	if !ok || value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Text returns field as a string. Non-string values yield "".
func (r Record) Text(field string) string {
	s, _ := r[field].(string)
	return s
}
