package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/davidahmann/subscreen/internal/ambiguity"
	"github.com/davidahmann/subscreen/internal/decision"
	"github.com/davidahmann/subscreen/internal/ledger"
	"github.com/davidahmann/subscreen/internal/review"
	"github.com/davidahmann/subscreen/internal/rules"
	"github.com/davidahmann/subscreen/internal/ruleset"
	"github.com/davidahmann/subscreen/pkg/types"
)

type ReviewService struct {
	Pipeline *review.Pipeline
	Ruleset  ruleset.LoadedRuleset
	Ledger   ledger.Store
	Logger   *slog.Logger
}

type NewReviewServiceInput struct {
	// RulesetPath is optional; the built-in ruleset is used when empty.
	RulesetPath string
	Ledger      ledger.Store
	Logger      *slog.Logger
	Observer    review.Observer
}

type ReviewResponse struct {
	RunID     string                 `json:"run_id"`
	Mode      review.Mode            `json:"mode"`
	Summary   review.Summary         `json:"summary"`
	Decisions []types.DecisionRecord `json:"decisions"`
}

type RunResponse struct {
	RunID       string           `json:"run_id"`
	Mode        string           `json:"mode"`
	RulesetID   string           `json:"ruleset_id"`
	RulesetHash string           `json:"ruleset_hash"`
	CreatedAt   string           `json:"created_at"`
	Summary     review.Summary   `json:"summary"`
	Decisions   []StoredDecision `json:"decisions"`
}

type StoredDecision struct {
	Position   int                  `json:"position"`
	DecisionID string               `json:"decision_id"`
	Stage      string               `json:"stage"`
	Record     types.DecisionRecord `json:"record"`
}

func NewReviewService(in NewReviewServiceInput) (*ReviewService, error) {
	loaded := ruleset.DefaultLoaded()
	if in.RulesetPath != "" {
		var err error
		loaded, err = ruleset.Load(in.RulesetPath)
		if err != nil {
			return nil, fmt.Errorf("load ruleset: %w", err)
		}
	}

	matcher, err := ambiguity.New(loaded.Ruleset.AmbiguityConfig())
	if err != nil {
		return nil, fmt.Errorf("compile markers: %w", err)
	}

	logger := in.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := []review.Option{review.WithLogger(logger)}
	if in.Observer != nil {
		opts = append(opts, review.WithObserver(in.Observer))
	}

	return &ReviewService{
		Pipeline: review.New(rules.New(loaded.Ruleset.RulesConfig()), matcher, opts...),
		Ruleset:  loaded,
		Ledger:   in.Ledger,
		Logger:   logger,
	}, nil
}

// Review runs the full two-stage pipeline and records the run when a ledger
// is configured.
func (s *ReviewService) Review(records []types.Record) (ReviewResponse, error) {
	return s.run(review.ModeReview, records)
}

// Validate runs the rule pass alone.
func (s *ReviewService) Validate(records []types.Record) (ReviewResponse, error) {
	return s.run(review.ModeValidate, records)
}

func (s *ReviewService) run(mode review.Mode, records []types.Record) (ReviewResponse, error) {
	batch := s.Pipeline.Run(mode, records)
	resp := ReviewResponse{
		RunID:     batch.RunID,
		Mode:      mode,
		Summary:   batch.Summary,
		Decisions: batch.Decisions(),
	}
	if s.Ledger == nil {
		return resp, nil
	}

	rs := s.Ruleset.Ruleset
	run, entries, err := decision.BuildRun(batch, decision.RulesetRef{
		RulesetID:      rs.RulesetID,
		RulesetVersion: rs.RulesetVersion,
		RulesetHash:    s.Ruleset.Hash,
	})
	if err != nil {
		return ReviewResponse{}, err
	}
	if err := s.Ledger.PutRun(run, entries); err != nil {
		return ReviewResponse{}, fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	s.Logger.Debug("review run recorded", slog.String("run_id", run.RunID), slog.Int("decisions", len(entries)))
	return resp, nil
}

// GetRun loads a recorded run with its decisions in input order.
func (s *ReviewService) GetRun(runID string) (RunResponse, error) {
	if s.Ledger == nil {
		return RunResponse{}, ledger.ErrNotFound
	}
	run, ok := s.Ledger.GetRun(runID)
	if !ok {
		return RunResponse{}, ledger.ErrNotFound
	}
	entries, err := s.Ledger.ListDecisions(runID)
	if err != nil {
		return RunResponse{}, err
	}

	resp := RunResponse{
		RunID:       run.RunID,
		Mode:        run.Mode,
		RulesetID:   run.RulesetID,
		RulesetHash: run.RulesetHash,
		CreatedAt:   run.CreatedAt,
		Summary: review.Summary{
			Total:     run.Total,
			Approved:  run.Approved,
			Returned:  run.Returned,
			Escalated: run.Escalated,
		},
		Decisions: make([]StoredDecision, 0, len(entries)),
	}
	for _, entry := range entries {
		stored := StoredDecision{Position: entry.Position, DecisionID: entry.DecisionID, Stage: entry.Stage}
		dec := json.NewDecoder(bytes.NewReader(entry.BodyJSON))
		dec.UseNumber()
		if err := dec.Decode(&stored.Record); err != nil {
			return RunResponse{}, fmt.Errorf("decision %s: %w", entry.DecisionID, err)
		}
		resp.Decisions = append(resp.Decisions, stored)
	}
	return resp, nil
}
