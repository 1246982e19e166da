package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	xerrors "NewsAgent/internal/errors"
)

func TestExitCodeSeparatesConfigurationErrors(t *testing.T) {
	t.Parallel()

	cfgErr := xerrors.New(xerrors.CodeConfiguration, "Missing SMTP settings in .env file: SMTP_USER",
		xerrors.WithMetadata("missing", "SMTP_USER,SMTP_PASSWORD"))

	assert.Equal(t, 2, exitCode(cfgErr))
	assert.Equal(t, 2, exitCode(fmt.Errorf("open tool session: %w", cfgErr)))
	assert.Equal(t, 1, exitCode(errors.New("dial tcp: refused")))
	assert.Equal(t, 1, exitCode(xerrors.New(xerrors.CodeToolInvocation, "tool gateway exposes no tools")))
}

func TestDescribeErrorListsMissingSettings(t *testing.T) {
	t.Parallel()

	cfgErr := xerrors.New(xerrors.CodeConfiguration, "Missing SMTP settings in .env file: SMTP_USER",
		xerrors.WithMetadata("missing", "SMTP_USER,SMTP_PASSWORD"))

	assert.Equal(t,
		"newsagent: CONFIGURATION error: Missing SMTP settings in .env file: SMTP_USER\nset these variables in .env: SMTP_USER SMTP_PASSWORD",
		describeError(cfgErr))
	assert.Equal(t, "newsagent: boom", describeError(errors.New("boom")))
}

func TestRootCommandHasNoFlags(t *testing.T) {
	t.Parallel()

	assert.False(t, rootCmd.PersistentFlags().HasFlags())
	assert.False(t, rootCmd.LocalNonPersistentFlags().HasFlags())
}
