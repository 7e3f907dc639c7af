package ledger

import (
	"fmt"
	"sort"
	"sync"
)

type InMemoryStore struct {
	mu sync.Mutex

	runs      map[string]RunRecord
	decisions map[string][]DecisionEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		runs:      make(map[string]RunRecord),
		decisions: make(map[string][]DecisionEntry),
	}
}

// WithTx stages writes and applies them only when fn succeeds.
func (s *InMemoryStore) WithTx(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	for _, run := range tx.runs {
		s.runs[run.RunID] = run
	}
	for _, entry := range tx.entries {
		s.decisions[entry.RunID] = append(s.decisions[entry.RunID], entry)
	}
	return nil
}

type memTx struct {
	store   *InMemoryStore
	runs    []RunRecord
	entries []DecisionEntry
}

func (t *memTx) PutRun(run RunRecord) error {
	if _, ok := t.store.runs[run.RunID]; ok {
		return fmt.Errorf("run %s already exists", run.RunID)
	}
	for _, staged := range t.runs {
		if staged.RunID == run.RunID {
			return fmt.Errorf("run %s already exists", run.RunID)
		}
	}
	t.runs = append(t.runs, run)
	return nil
}

func (t *memTx) PutDecision(entry DecisionEntry) error {
	known := false
	if _, ok := t.store.runs[entry.RunID]; ok {
		known = true
	}
	for _, staged := range t.runs {
		if staged.RunID == entry.RunID {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("decision references unknown run %s", entry.RunID)
	}
	t.entries = append(t.entries, entry)
	return nil
}

func (s *InMemoryStore) PutRun(run RunRecord, entries []DecisionEntry) error {
	return PutBatch(s, run, entries)
}

func (s *InMemoryStore) GetRun(runID string) (RunRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	return run, ok
}

func (s *InMemoryStore) ListDecisions(runID string) ([]DecisionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]DecisionEntry, len(s.decisions[runID]))
	copy(out, s.decisions[runID])
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
