package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NewsAgent/internal/domain"
)

func TestFormatRunStatus(t *testing.T) {
	t.Parallel()

	result := &domain.RunResult{
		RunID:     "0f8e6a52-5d1c-4c1e-9a44-0b1f1b2f7c11",
		Success:   false,
		Priority:  domain.PriorityHigh,
		UsedCache: true,
		Selected:  []domain.Article{{Title: "Robot arms", URL: "https://news.example.com/arms"}},
		Steps: []domain.StepOutcome{
			{Step: 1, Action: domain.ActionFetchNews, Status: domain.StatusSuccess},
			{Step: 6, Action: domain.ActionSendEmail, Status: domain.StatusFailed, Error: "smtp down"},
		},
	}

	want := "NewsAgent run 0f8e6a52 failed (high priority, cached listing)\n" +
		"- Robot arms\n  https://news.example.com/arms\n" +
		"step 6 send_email failed: smtp down"
	assert.Equal(t, want, FormatRunStatus(result))
	assert.Empty(t, FormatRunStatus(nil))
}
