package domain

// Intent names recognised by the planner.
const (
	IntentFetchNews = "fetch_news"
	IntentCustom    = "custom"
)

// Intent is the classified purpose of a request.
type Intent struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Parameters map[string]any `json:"parameters"`
	RawInput   string         `json:"raw_input"`
}

// Facts holds what was extracted from a request.
type Facts struct {
	Facts        []string       `json:"facts"`
	Requirements []string       `json:"requirements"`
	Constraints  []string       `json:"constraints"`
	Preferences  map[string]any `json:"preferences"`
}

// Perception is the interpreted form of a raw request.
type Perception struct {
	Intent Intent `json:"intent"`
	Facts  Facts  `json:"facts"`
}
