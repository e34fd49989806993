package model

import "time"

// Candidate is an executable order as produced by the eligibility pass.
type Candidate struct {
	Order           PlannedOrder
	FillProbability float64
	FoundAt         time.Time
}

// ScoredCandidate is a candidate after the prioritization pass.
type ScoredCandidate struct {
	Candidate

	Score             float64
	CapitalCommitment float64
	Allocated         bool
}

// ExecutionOutcome records what happened to one candidate in a batch.
type ExecutionOutcome struct {
	Symbol   string
	Identity IdentityKey
	Executed bool
	OrderIDs []int64
	Reason   string
}

// ExecutionSummary reports one coordinator batch, with per-symbol reasons.
type ExecutionSummary struct {
	Executed   int
	Skipped    int
	Outcomes   []ExecutionOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Record appends one outcome and bumps the counters.
func (s *ExecutionSummary) Record(o ExecutionOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Executed {
		s.Executed++
	} else {
		s.Skipped++
	}
}
