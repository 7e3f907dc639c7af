package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/davidahmann/subscreen/internal/config"
	"github.com/davidahmann/subscreen/internal/ledger"
	"github.com/davidahmann/subscreen/pkg/types"
)

type failingStore struct {
	ledger.Store
}

func (failingStore) PutRun(ledger.RunRecord, []ledger.DecisionEntry) error {
	return errors.New("disk full")
}

func TestReviewServiceDefaultsWithoutLedger(t *testing.T) {
	service, err := NewReviewService(NewReviewServiceInput{})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	resp, err := service.Review([]types.Record{{"questionnaire_id": "q"}})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(resp.Decisions) != 1 || resp.Decisions[0].Decision != types.DecisionReturn {
		t.Fatalf("unexpected decisions %+v", resp.Decisions)
	}
	if _, err := service.GetRun(resp.RunID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReviewServiceLedgerFailure(t *testing.T) {
	service, err := NewReviewService(NewReviewServiceInput{Ledger: failingStore{}})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, err := service.Validate([]types.Record{{}}); err == nil {
		t.Fatalf("expected ledger error")
	}
}

func TestReviewServiceBadRuleset(t *testing.T) {
	if _, err := NewReviewService(NewReviewServiceInput{RulesetPath: "missing.yaml"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenLedgerSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "ledger.db")
	store, closer, err := OpenLedger(config.DBConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer closer.Close()

	service, err := NewReviewService(NewReviewServiceInput{Ledger: store})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	resp, err := service.Review([]types.Record{{"questionnaire_id": 1}, {}})
	if err != nil {
		t.Fatalf("review: %v", err)
	}

	run, err := service.GetRun(resp.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Summary.Total != 2 || len(run.Decisions) != 2 || run.Decisions[1].Position != 1 {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestGetRunKeepsNumericQuestionnaireID(t *testing.T) {
	service, err := NewReviewService(NewReviewServiceInput{Ledger: ledger.NewInMemoryStore()})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	id := json.Number("12345678901234567891")
	resp, err := service.Review([]types.Record{{"questionnaire_id": id}})
	if err != nil {
		t.Fatalf("review: %v", err)
	}

	run, err := service.GetRun(resp.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if len(run.Decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(run.Decisions))
	}
	got := run.Decisions[0].Record.QuestionnaireID
	if got != id {
		t.Fatalf("expected id %v (%T), got %v (%T)", id, id, got, got)
	}

	encoded, err := json.Marshal(run.Decisions[0].Record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `"questionnaire_id":12345678901234567891`
	if !bytes.Contains(encoded, []byte(want)) {
		t.Fatalf("expected %s in %s", want, encoded)
	}
}

func TestOpenLedgerDefaultsAndErrors(t *testing.T) {
	store, closer, err := OpenLedger(config.DBConfig{})
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if _, ok := store.(*ledger.InMemoryStore); !ok {
		t.Fatalf("expected in-memory store, got %T", store)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, _, err := OpenLedger(config.DBConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
