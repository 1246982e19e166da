package planner

import "NewsAgent/internal/domain"

type recoveryEntry struct {
	steps       []string
	canContinue bool
}

var recoveryTable = map[int]recoveryEntry{
	1: {steps: []string{"Try alternative news sources", "Use cached articles if available", "Generate sample articles for testing"}, canContinue: true},
	2: {steps: []string{"Use fallback selection (first 3 articles)", "Retry with different selection criteria"}, canContinue: true},
	3: {steps: []string{"Skip problematic articles", "Use cached content if available", "Generate placeholder content"}, canContinue: true},
	4: {steps: []string{"Try different filename", "Save to different location", "Create backup before overwriting"}, canContinue: true},
	5: {steps: []string{"Use simpler summary approach", "Retry with different prompt", "Use template summary"}, canContinue: true},
	6: {steps: []string{"Check email configuration", "Try different email service", "Save summary to file instead"}, canContinue: false},
}

var genericRecovery = recoveryEntry{steps: []string{"Retry the step", "Skip the step"}, canContinue: true}

// CreateRecoveryPlan looks up the canned remediation for a failed step.
// Only the email step is non-continuable.
func (p *Planner) CreateRecoveryPlan(err error, step int, _ domain.WorkflowPlan) domain.RecoveryPlan {
	entry, ok := recoveryTable[step]
	if !ok {
		entry = genericRecovery
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	plan := domain.RecoveryPlan{
		Error:         msg,
		FailedStep:    step,
		RecoverySteps: append([]string(nil), entry.steps...),
		CanContinue:   entry.canContinue,
	}
	p.debug("recovery plan created", "step", step, "can_continue", plan.CanContinue)
	return plan
}
