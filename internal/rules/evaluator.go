package rules

import (
	"encoding/json"
	"math"

	"github.com/davidahmann/subscreen/pkg/types"
)

// ReasonNotAccredited is the escalation reason for an explicit false
// accreditation answer.
const ReasonNotAccredited = "Investor is not accredited"

// Config names the fields the rule checks read.
type Config struct {
	RequiredFields     []string
	AmountField        string
	AccreditationField string
}

// DefaultConfig returns the required fields of a subscription questionnaire
// in declaration order.
func DefaultConfig() Config {
	return Config{
		RequiredFields: []string{
			"investor_name",
			"investor_address",
			"investment_amount",
			"is_accredited_investor",
			"signature_present",
			"tax_id_provided",
		},
		AmountField:        "investment_amount",
		AccreditationField: "is_accredited_investor",
	}
}

// Evaluator applies the completeness and business-rule checks to one
// questionnaire at a time. It is safe for concurrent use.
type Evaluator struct {
	cfg Config
}

// New returns an evaluator over a private copy of cfg.
func New(cfg Config) *Evaluator {
	fields := make([]string, len(cfg.RequiredFields))
	copy(fields, cfg.RequiredFields)
	cfg.RequiredFields = fields
	return &Evaluator{cfg: cfg}
}

// Evaluate applies the first failing check to record, otherwise approves.
// Checks run in order: completeness, amount, accreditation.
func (e *Evaluator) Evaluate(record types.Record) types.DecisionRecord {
	id := record.ID()

	var missing []string
	for _, field := range e.cfg.RequiredFields {
		if record.Blank(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return types.Return(id, missing)
	}

	if amount, ok := Number(record[e.cfg.AmountField]); !ok || amount <= 0 {
		return types.Return(id, []string{e.cfg.AmountField})
	}

	if accredited, ok := record[e.cfg.AccreditationField].(bool); ok && !accredited {
		return types.Escalate(id, ReasonNotAccredited)
	}

	return types.Approve(id)
}

// Number converts the numeric representations produced by the JSON and YAML
// decoders to float64. Booleans, strings and non-finite values are rejected.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
