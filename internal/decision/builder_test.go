package decision

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/davidahmann/subscreen/internal/review"
	"github.com/davidahmann/subscreen/pkg/types"
)

func TestDecisionIDDeterministic(t *testing.T) {
	rec := types.Return("q-1", []string{"investor_name"})

	a, err := DecisionID("run-1", 0, rec)
	if err != nil {
		t.Fatalf("decision id: %v", err)
	}
	b, err := DecisionID("run-1", 0, rec)
	if err != nil {
		t.Fatalf("decision id: %v", err)
	}
	if a == "" || a != b {
		t.Fatalf("decision id not deterministic: %s vs %s", a, b)
	}

	c, err := DecisionID("run-1", 1, rec)
	if err != nil {
		t.Fatalf("decision id: %v", err)
	}
	if a == c {
		t.Fatalf("decision id should change with position")
	}

	d, err := DecisionID("run-1", 0, types.Escalate("q-1", "Investor is not accredited"))
	if err != nil {
		t.Fatalf("decision id: %v", err)
	}
	if a == d {
		t.Fatalf("decision id should change with decision")
	}
}

func TestDecisionIDAcceptsAnyQuestionnaireID(t *testing.T) {
	for _, id := range []any{nil, 1.5, json.Number("12.5"), true, map[string]any{"k": "v"}} {
		if _, err := DecisionID("run", 0, types.Approve(id)); err != nil {
			t.Fatalf("id %#v: %v", id, err)
		}
	}
}

func TestQuestionnaireKey(t *testing.T) {
	if QuestionnaireKey(nil) != nil {
		t.Fatalf("expected nil key")
	}
	cases := map[string]any{
		"q-1":   "q-1",
		"42":    json.Number("42"),
		"2.5":   2.5,
		"false": false,
	}
	for want, id := range cases {
		got := QuestionnaireKey(id)
		if got == nil || *got != want {
			t.Fatalf("id %#v: got %v want %s", id, got, want)
		}
	}
}

func TestBuildRun(t *testing.T) {
	batch := review.Batch{
		RunID:     "run-1",
		Mode:      review.ModeReview,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Outcomes: []review.Outcome{
			{Position: 0, Stage: review.StageText, Decision: types.Approve("a")},
			{Position: 1, Stage: review.StageRules, Decision: types.Return(nil, []string{"investment_amount"})},
		},
		Summary: review.Summary{Total: 2, Approved: 1, Returned: 1},
	}

	run, entries, err := BuildRun(batch, RulesetRef{RulesetID: "subscreen-default", RulesetVersion: "1", RulesetHash: "sha256:rs"})
	if err != nil {
		t.Fatalf("build run: %v", err)
	}
	if run.RunID != "run-1" || run.Mode != "review" || run.Total != 2 || run.Returned != 1 || run.CreatedAt != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].QuestionnaireID != nil || entries[1].Stage != "rules" || entries[1].Decision != "Return" {
		t.Fatalf("unexpected entry: %+v", entries[1])
	}
	want := `{"questionnaire_id":null,"decision":"Return","missing_fields":["investment_amount"],"escalation_reason":null}`
	if string(entries[1].BodyJSON) != want {
		t.Fatalf("body: got %s want %s", entries[1].BodyJSON, want)
	}
}
