package domain

// Action names one of the six fixed workflow steps.
type Action string

const (
	ActionFetchNews      Action = "fetch_news"
	ActionSelectArticles Action = "select_articles"
	ActionFetchContent   Action = "fetch_content"
	ActionSaveDocument   Action = "save_document"
	ActionSummarize      Action = "summarize"
	ActionSendEmail      Action = "send_email"
)

// Priority of a plan.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Step parameter keys.
const (
	ParamURL          = "url"
	ParamArticleCount = "article_count"
	ParamFilename     = "filename"
	ParamToEmail      = "to_email"
	ParamSubject      = "subject"
	ParamCriteria     = "criteria"
)

// WorkflowStep is one unit of work in a plan.
type WorkflowStep struct {
	Step        int            `json:"step"`
	Action      Action         `json:"action"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Required    bool           `json:"required"`
	RetryCount  int            `json:"retry_count,omitempty"`
	RetryDelay  int            `json:"retry_delay,omitempty"`
}

// StringParam returns a string parameter or fallback.
func (s WorkflowStep) StringParam(key, fallback string) string {
	if v, ok := s.Parameters[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// IntParam returns an integer parameter or fallback.
func (s WorkflowStep) IntParam(key string, fallback int) int {
	switch v := s.Parameters[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// WorkflowPlan is the ordered step list built for a single run.
type WorkflowPlan struct {
	Steps         []WorkflowStep `json:"steps"`
	TotalSteps    int            `json:"total_steps"`
	EstimatedTime string         `json:"estimated_time"`
	Priority      Priority       `json:"priority"`
}

// RecoveryPlan lists suggested remediations for a failed step.
type RecoveryPlan struct {
	Error         string   `json:"error"`
	FailedStep    int      `json:"failed_step"`
	RecoverySteps []string `json:"recovery_steps"`
	CanContinue   bool     `json:"can_continue"`
}
