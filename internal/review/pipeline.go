package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/davidahmann/subscreen/pkg/types"
)

// Stage names the review pass that produced a final decision.
type Stage string

const (
	StageRules Stage = "rules"
	StageText  Stage = "text"
)

// Mode selects between the full pipeline and rule-only validation.
type Mode string

const (
	ModeReview   Mode = "review"
	ModeValidate Mode = "validate"
)

func (m Mode) Valid() bool {
	return m == ModeReview || m == ModeValidate
}

type RuleEvaluator interface {
	Evaluate(record types.Record) types.DecisionRecord
}

type TextScanner interface {
	Scan(record types.Record) types.DecisionRecord
}

// Observer receives every completed batch, e.g. for metrics.
type Observer interface {
	ObserveBatch(mode Mode, outcomes []Outcome, elapsed time.Duration)
}

type Outcome struct {
	Position int
	Stage    Stage
	Decision types.DecisionRecord
}

type Pipeline struct {
	rules    RuleEvaluator
	text     TextScanner
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(p *Pipeline) { p.observer = observer }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(rules RuleEvaluator, text TextScanner, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:  rules,
		text:   text,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process reviews records and returns one decision per record in input
// order. The text scan runs only on records the rule pass approves.
func (p *Pipeline) Process(records []types.Record) []types.DecisionRecord {
	return decisions(p.Outcomes(ModeReview, records))
}

// Validate runs the rule pass alone over records.
func (p *Pipeline) Validate(records []types.Record) []types.DecisionRecord {
	return decisions(p.Outcomes(ModeValidate, records))
}

// Outcomes runs mode over records, keeping the stage of each decision.
func (p *Pipeline) Outcomes(mode Mode, records []types.Record) []Outcome {
	start := p.now()
	outcomes := make([]Outcome, len(records))
	for i, record := range records {
		outcomes[i] = p.review(mode, i, record)
	}
	if p.observer != nil {
		p.observer.ObserveBatch(mode, outcomes, p.now().Sub(start))
	}
	return outcomes
}

func (p *Pipeline) review(mode Mode, position int, record types.Record) Outcome {
	out := Outcome{Position: position, Stage: StageRules, Decision: p.rules.Evaluate(record)}
	if mode == ModeReview && out.Decision.Decision == types.DecisionApprove {
		out.Stage = StageText
		out.Decision = p.text.Scan(record)
	}

	p.logger.LogAttrs(context.Background(), slog.LevelDebug, "questionnaire reviewed",
		slog.Int("position", position),
		slog.Any("questionnaire_id", out.Decision.QuestionnaireID),
		slog.String("stage", string(out.Stage)),
		slog.String("decision", string(out.Decision.Decision)),
	)
	return out
}

func decisions(outcomes []Outcome) []types.DecisionRecord {
	out := make([]types.DecisionRecord, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Decision
	}
	return out
}

type Summary struct {
	Total     int `json:"total"`
	Approved  int `json:"approved"`
	Returned  int `json:"returned"`
	Escalated int `json:"escalated"`
}

func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Decision.Decision {
		case types.DecisionApprove:
			s.Approved++
		case types.DecisionReturn:
			s.Returned++
		case types.DecisionEscalate:
			s.Escalated++
		}
	}
	return s
}

// Batch is one identified run of the pipeline.
type Batch struct {
	RunID     string
	Mode      Mode
	CreatedAt time.Time
	Outcomes  []Outcome
	Summary   Summary
}

func (b Batch) Decisions() []types.DecisionRecord {
	return decisions(b.Outcomes)
}

// Run executes mode over records under a fresh run id.
func (p *Pipeline) Run(mode Mode, records []types.Record) Batch {
	createdAt := p.now().UTC()
	outcomes := p.Outcomes(mode, records)
	batch := Batch{
		RunID:     uuid.NewString(),
		Mode:      mode,
		CreatedAt: createdAt,
		Outcomes:  outcomes,
		Summary:   Summarize(outcomes),
	}
	p.logger.Info("review batch complete",
		slog.String("run_id", batch.RunID),
		slog.String("mode", string(mode)),
		slog.Int("total", batch.Summary.Total),
		slog.Int("approved", batch.Summary.Approved),
		slog.Int("returned", batch.Summary.Returned),
		slog.Int("escalated", batch.Summary.Escalated),
	)
	return batch
}
