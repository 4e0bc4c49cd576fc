package pipeline

import (
	"context"
	"sync"
	"time"

	"rxcli/internal/address"
	"rxcli/internal/postcode"
	"rxcli/internal/prescription"
	"rxcli/internal/report"
)

// Step is a single stage of an analysis run.
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step against the shared run state
	Execute(ctx context.Context, state *State) error
}

// StepStatus represents the outcome of a Step
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepResult records how a Step ended.
type StepResult struct {
	ID       string
	Status   StepStatus
	Rows     int64
	Duration time.Duration
	Err      error
}

// State is what the steps of one run hand to each other. The two lookup
// steps write disjoint fields, so they may run concurrently.
type State struct {
	Postcodes     *postcode.Builder
	Addresses     *address.Registry
	Prescriptions *prescription.Aggregator
	Summary       *report.Summary

	mu      sync.Mutex
	results []StepResult
	rows    map[string]int64
}

func newState() *State {
	return &State{rows: make(map[string]int64)}
}

func (s *State) record(res StepResult) {
	s.mu.Lock()
	s.results = append(s.results, res)
	s.mu.Unlock()
}

func (s *State) setRows(id string, n int64) {
	s.mu.Lock()
	s.rows[id] = n
	s.mu.Unlock()
}

func (s *State) rowsFor(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

// Results returns the step results in completion order.
func (s *State) Results() []StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StepResult(nil), s.results...)
}
