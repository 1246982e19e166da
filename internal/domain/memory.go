package domain

import "time"

// Session record statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// SessionRecord is one entry of the session log.
type SessionRecord struct {
	Step         int            `json:"step"`
	Action       Action         `json:"action"`
	Status       string         `json:"status"`
	Timestamp    time.Time      `json:"timestamp"`
	RunID        string         `json:"run_id,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Error        string         `json:"error,omitempty"`
	RecoveryPlan *RecoveryPlan  `json:"recovery_plan,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// EmailRecord is one entry of the email log.
type EmailRecord struct {
	Subject       string    `json:"subject"`
	ToEmail       string    `json:"to_email"`
	SummaryLength int       `json:"summary_length"`
	ArticlesCount int       `json:"articles_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// CachedArticles is one article cache entry.
type CachedArticles struct {
	Articles  []Article `json:"articles"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// Selection is one remembered article selection.
type Selection struct {
	Articles  []Article `json:"articles"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// SystemState tracks run counters across invocations.
type SystemState struct {
	LastRun                *time.Time `json:"last_run"`
	TotalArticlesProcessed int        `json:"total_articles_processed"`
	SuccessfulRuns         int        `json:"successful_runs"`
	FailedRuns             int        `json:"failed_runs"`
}

// StatePatch updates selected counters; nil fields are left untouched.
type StatePatch struct {
	TotalArticlesProcessed *int
	SuccessfulRuns         *int
	FailedRuns             *int
}

// MemorySummary is the read model the planner works from.
type MemorySummary struct {
	TotalSessions        int            `json:"total_sessions"`
	TotalEmails          int            `json:"total_emails"`
	CachedArticlesCount  int            `json:"cached_articles_count"`
	UserPreferencesCount int            `json:"user_preferences_count"`
	SystemState          SystemState    `json:"system_state"`
	MemoryCreated        time.Time      `json:"memory_created"`
	Preferences          map[string]any `json:"preferences,omitempty"`
	RecentReasons        []string       `json:"recent_reasons,omitempty"`
	RecentSubjects       []string       `json:"recent_subjects,omitempty"`
}

// SearchHit is a memory record matching a search query.
type SearchHit struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
	Data any    `json:"data"`
}
