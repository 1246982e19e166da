package reply

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "NewsAgent/internal/errors"
)

type stubClient struct {
	resp string
	err  error
	wait time.Duration
}

func (s stubClient) Complete(ctx context.Context, _ string) (string, error) {
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.resp, s.err
}

func TestParseExtractsObjectFromProse(t *testing.T) {
	t.Parallel()

	r := Parse("Sure! Here you go:\n```json\n{\"intent\": \"fetch_news\", \"nested\": {\"a\": \"}\"}}\n```\nAnything else?")
	require.Equal(t, Structured, r.Kind)

	var got struct {
		Intent string            `json:"intent"`
		Nested map[string]string `json:"nested"`
	}
	require.NoError(t, Decode(r, &got))
	assert.Equal(t, "fetch_news", got.Intent)
	assert.Equal(t, "}", got.Nested["a"])
}

func TestParseSkipsInvalidLeadingBraces(t *testing.T) {
	t.Parallel()

	r := Parse("{ not json at all } then {\"ok\": true}")
	assert.Equal(t, Unparseable, r.Kind, "first balanced span is invalid JSON")

	r = Parse("stray { brace then {\"ok\": true}")
	require.Equal(t, Structured, r.Kind)
	assert.JSONEq(t, `{"ok": true}`, string(r.Value))
}

func TestParseUnparseable(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "no json here", "{unterminated", "[1, 2, 3]"} {
		r := Parse(text)
		assert.Equal(t, Unparseable, r.Kind, text)
		assert.Equal(t, text, r.Raw)
		err := Decode(r, &struct{}{})
		assert.True(t, xerrors.IsCode(err, xerrors.CodeParse))
	}
}

func TestDecodeShapeMismatch(t *testing.T) {
	t.Parallel()

	var got struct {
		Confidence float64 `json:"confidence"`
	}
	err := Decode(Parse(`{"confidence": "very"}`), &got)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeParse))
}

func TestAskTimeout(t *testing.T) {
	t.Parallel()

	_, err := Ask(context.Background(), stubClient{resp: "{}", wait: time.Second}, 20*time.Millisecond, "hi")
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeCollaboratorTimeout))
}

func TestAskErrorAndSuccess(t *testing.T) {
	t.Parallel()

	_, err := Ask(context.Background(), stubClient{err: errors.New("503")}, time.Second, "hi")
	require.Error(t, err)
	assert.False(t, xerrors.IsCode(err, xerrors.CodeCollaboratorTimeout))

	r, err := Ask(context.Background(), stubClient{resp: "  {\"a\":1}  "}, time.Second, "hi")
	require.NoError(t, err)
	assert.Equal(t, Structured, r.Kind)

	_, err = Ask(context.Background(), nil, time.Second, "hi")
	assert.True(t, xerrors.IsCode(err, xerrors.CodeConfiguration))
}
