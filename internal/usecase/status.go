package usecase

import (
	"fmt"
	"strings"

	"NewsAgent/internal/domain"
)

// FormatRunStatus renders the short message pushed to notifiers after a run.
func FormatRunStatus(result *domain.RunResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "NewsAgent run %s succeeded", shortID(result.RunID))
	} else {
		fmt.Fprintf(&b, "NewsAgent run %s failed", shortID(result.RunID))
	}
	fmt.Fprintf(&b, " (%s priority", result.Priority)
	if result.UsedCache {
		b.WriteString(", cached listing")
	}
	b.WriteString(")\n")

	for _, a := range result.Selected {
		fmt.Fprintf(&b, "- %s\n  %s\n", a.Title, a.URL)
	}

	for _, s := range result.Steps {
		if s.Status == domain.StatusFailed {
			fmt.Fprintf(&b, "step %d %s failed: %s\n", s.Step, s.Action, s.Error)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
