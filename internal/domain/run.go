package domain

import "time"

// StepOutcome summarises how a single step ended.
type StepOutcome struct {
	Step   int    `json:"step"`
	Action Action `json:"action"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RunResult is what a workflow run reports to its caller.
type RunResult struct {
	RunID      string           `json:"run_id"`
	Goal       string           `json:"goal"`
	Success    bool             `json:"success"`
	Priority   Priority         `json:"priority"`
	UsedCache  bool             `json:"used_cache"`
	Articles   []Article        `json:"articles"`
	Selected   []Article        `json:"selected"`
	Contents   []ArticleContent `json:"contents"`
	Summary    string           `json:"summary"`
	Steps      []StepOutcome    `json:"steps"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// RunRecord is the archived form of a finished run.
type RunRecord struct {
	RunID         string
	Goal          string
	Success       bool
	Priority      Priority
	ArticlesCount int
	SummaryLength int
	FailedStep    int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Email is an outbound message handed to the mail transport.
type Email struct {
	Subject string
	Body    string
	To      string
}
