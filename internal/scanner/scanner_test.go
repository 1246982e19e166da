package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAgent/internal/domain"
)

type named string

func (n named) Name() string { return string(n) }

func (n named) Scan(context.Context, Request) ([]domain.Article, error) { return nil, nil }

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(named("selectors"))
	reg.Register(named("arxiv"))

	got, err := reg.Resolve("arxiv")
	require.NoError(t, err)
	assert.Equal(t, "arxiv", got.Name())
	assert.Equal(t, []string{"arxiv", "selectors"}, reg.Names())

	_, err = reg.Resolve("rss")
	assert.EqualError(t, err, "scanner rss is not registered")

	var zero Registry
	zero.Register(named("late"))
	_, err = zero.Resolve("late")
	assert.NoError(t, err)
}
