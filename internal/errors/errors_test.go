package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCodeThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("dial tcp: refused")
	err := fmt.Errorf("step fetch_news: %w", Wrap(CodeToolInvocation, cause, "fetch_ai_news failed"))

	assert.Equal(t, CodeToolInvocation, CodeOf(err))
	assert.True(t, IsCode(err, CodeToolInvocation))
	assert.False(t, IsCode(err, CodeParse))
	assert.ErrorIs(t, err, cause)
	assert.True(t, RetryableError(err))
	assert.Contains(t, err.Error(), "[TOOL_INVOCATION] fetch_ai_news failed: dial tcp: refused")
}

func TestConfigurationIsFatalAndNotRetryable(t *testing.T) {
	t.Parallel()

	err := New(CodeConfiguration, "", WithMetadata("missing", "SMTP_USER"))
	assert.Equal(t, "invalid configuration", err.Message())
	assert.True(t, IsFatal(err))
	assert.False(t, RetryableError(err))
	assert.Equal(t, map[string]string{"missing": "SMTP_USER"}, err.Metadata())
}

func TestRetryableOverride(t *testing.T) {
	t.Parallel()

	err := New(CodeToolInvocation, "bad input", WithRetryable(false))
	assert.False(t, err.Retryable())
}

func TestUncodedErrors(t *testing.T) {
	t.Parallel()

	plain := stdErrors.New("boom")
	assert.Equal(t, CodeUnknown, CodeOf(plain))
	assert.True(t, RetryableError(plain))
	assert.False(t, IsFatal(plain))
	assert.False(t, RetryableError(nil))

	_, ok := From(plain)
	require.False(t, ok)
}
