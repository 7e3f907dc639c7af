package ledger

import "errors"

var ErrNotFound = errors.New("not found")

// Store persists review runs and their decisions.
type Store interface {
	WithTx(fn func(Tx) error) error

	PutRun(run RunRecord, entries []DecisionEntry) error
	GetRun(runID string) (RunRecord, bool)
	ListDecisions(runID string) ([]DecisionEntry, error)
}

type Tx interface {
	PutRun(run RunRecord) error
	PutDecision(entry DecisionEntry) error
}

type RunRecord struct {
	RunID          string
	Mode           string // review | validate
	RulesetID      string
	RulesetVersion string
	RulesetHash    string
	Total          int
	Approved       int
	Returned       int
	Escalated      int
	CreatedAt      string
}

type DecisionEntry struct {
	RunID           string
	Position        int
	DecisionID      string
	QuestionnaireID *string
	Decision        string
	Stage           string
	BodyJSON        []byte
	CreatedAt       string
}

// PutBatch writes run and its entries in one transaction.
func PutBatch(s Store, run RunRecord, entries []DecisionEntry) error {
	return s.WithTx(func(tx Tx) error {
		if err := tx.PutRun(run); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := tx.PutDecision(entry); err != nil {
				return err
			}
		}
		return nil
	})
}
