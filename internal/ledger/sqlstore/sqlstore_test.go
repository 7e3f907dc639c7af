package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/davidahmann/subscreen/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	s, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := ledger.Migrate(s.DB(), ledger.DBSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func strPtr(v string) *string {
	return &v
}

func TestStoreRunRoundTrip(t *testing.T) {
	s := openTestStore(t)

	run := ledger.RunRecord{
		RunID:          "run-1",
		Mode:           "review",
		RulesetID:      "subscreen-default",
		RulesetVersion: "1",
		RulesetHash:    "sha256:rs",
		Total:          2,
		Approved:       1,
		Escalated:      1,
		CreatedAt:      "2024-03-01T12:00:00Z",
	}
	entries := []ledger.DecisionEntry{
		{RunID: "run-1", Position: 1, DecisionID: "sha256:b", Decision: "Escalate", Stage: "text", BodyJSON: []byte(`{"decision":"Escalate"}`), CreatedAt: run.CreatedAt},
		{RunID: "run-1", Position: 0, DecisionID: "sha256:a", QuestionnaireID: strPtr("q-1"), Decision: "Approve", Stage: "text", BodyJSON: []byte(`{"decision":"Approve"}`), CreatedAt: run.CreatedAt},
	}
	if err := s.PutRun(run, entries); err != nil {
		t.Fatalf("put run: %v", err)
	}

	got, ok := s.GetRun("run-1")
	if !ok || got != run {
		t.Fatalf("get run mismatch: ok=%v got=%+v", ok, got)
	}

	list, err := s.ListDecisions("run-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(list))
	}
	if list[0].Position != 0 || list[0].QuestionnaireID == nil || *list[0].QuestionnaireID != "q-1" {
		t.Fatalf("unexpected first decision: %+v", list[0])
	}
	if list[1].QuestionnaireID != nil || string(list[1].BodyJSON) != `{"decision":"Escalate"}` {
		t.Fatalf("unexpected second decision: %+v", list[1])
	}
}

func TestStoreRollsBackFailedBatch(t *testing.T) {
	s := openTestStore(t)

	run := ledger.RunRecord{RunID: "run-2", Mode: "validate", CreatedAt: "2024-03-01T12:00:00Z"}
	dup := ledger.DecisionEntry{RunID: "run-2", Position: 0, DecisionID: "sha256:a", Decision: "Return", Stage: "rules", BodyJSON: []byte(`{}`)}
	if err := s.PutRun(run, []ledger.DecisionEntry{dup, dup}); err == nil {
		t.Fatalf("expected duplicate position error")
	}
	if _, ok := s.GetRun("run-2"); ok {
		t.Fatalf("run should have been rolled back")
	}
}

func TestStoreRejectsOrphanDecision(t *testing.T) {
	s := openTestStore(t)

	err := s.WithTx(func(tx ledger.Tx) error {
		return tx.PutDecision(ledger.DecisionEntry{RunID: "missing", DecisionID: "sha256:x", Decision: "Approve", Stage: "text", BodyJSON: []byte(`{}`)})
	})
	if err == nil {
		t.Fatalf("expected foreign key error")
	}
}

func TestStoreMissingRun(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.GetRun("nope"); ok {
		t.Fatalf("expected missing run")
	}
	if _, err := s.ListDecisions("nope"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.WithTx(func(tx ledger.Tx) error { return tx.PutRun(ledger.RunRecord{}) }); err == nil {
		t.Fatalf("expected missing run_id error")
	}
}
