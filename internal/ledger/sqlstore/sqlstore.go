package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/davidahmann/subscreen/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection also keeps per-connection
	// pragmas in effect.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) WithTx(fn func(ledger.Tx) error) error {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{})
	if err != nil {
		return err
	}
	if _, err := tx.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) PutRun(run ledger.RunRecord, entries []ledger.DecisionEntry) error {
	return ledger.PutBatch(s, run, entries)
}

func (s *Store) GetRun(runID string) (ledger.RunRecord, bool) {
	var rec ledger.RunRecord
	row := s.db.QueryRow(`SELECT run_id, mode, ruleset_id, ruleset_version, ruleset_hash, total, approved, returned, escalated, created_at
FROM review_runs WHERE run_id = ?`, runID)
	if err := row.Scan(&rec.RunID, &rec.Mode, &rec.RulesetID, &rec.RulesetVersion, &rec.RulesetHash, &rec.Total, &rec.Approved, &rec.Returned, &rec.Escalated, &rec.CreatedAt); err != nil {
		return ledger.RunRecord{}, false
	}
	return rec, true
}

func (s *Store) ListDecisions(runID string) ([]ledger.DecisionEntry, error) {
	if _, ok := s.GetRun(runID); !ok {
		return nil, ledger.ErrNotFound
	}

	rows, err := s.db.Query(`SELECT run_id, position, decision_id, questionnaire_id, decision, stage, body_json, created_at
FROM review_decisions WHERE run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.DecisionEntry{}
	for rows.Next() {
		var rec ledger.DecisionEntry
		var body string
		if err := rows.Scan(&rec.RunID, &rec.Position, &rec.DecisionID, &rec.QuestionnaireID, &rec.Decision, &rec.Stage, &body, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.BodyJSON = []byte(body)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) PutRun(run ledger.RunRecord) error {
	if run.RunID == "" {
		return errors.New("missing run_id")
	}
	_, err := t.tx.Exec(`INSERT INTO review_runs(run_id, mode, ruleset_id, ruleset_version, ruleset_hash, total, approved, returned, escalated, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Mode, run.RulesetID, run.RulesetVersion, run.RulesetHash, run.Total, run.Approved, run.Returned, run.Escalated, run.CreatedAt)
	return err
}

func (t *Tx) PutDecision(entry ledger.DecisionEntry) error {
	_, err := t.tx.Exec(`INSERT INTO review_decisions(run_id, position, decision_id, questionnaire_id, decision, stage, body_json, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Position, entry.DecisionID, entry.QuestionnaireID, entry.Decision, entry.Stage, string(entry.BodyJSON), entry.CreatedAt)
	return err
}
