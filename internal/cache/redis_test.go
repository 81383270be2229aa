package cache

import (
	"context"
	"testing"

	"github.com/emrgen/notebook/internal/compress"
	"github.com/emrgen/notebook/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisProjectCache(t *testing.T) {
	ctx := context.TODO()
	c := NewRedisProjectCache(tester.Redis(t), compress.NewLZ4())
	id := uuid.New()
	t.Cleanup(func() { _ = c.DeleteProject(ctx, id) })

	_, ok, err := c.GetContent(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetContent(ctx, id, "<p>one</p>"))
	require.NoError(t, c.SetContent(ctx, id, "<p>two</p>"))

	content, ok, err := c.GetContent(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<p>two</p>", content)

	dirty, err := c.DirtyProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dirty[id.String()])

	cleaned, err := c.MarkClean(ctx, id, 1)
	require.NoError(t, err)
	assert.False(t, cleaned)

	cleaned, err = c.MarkClean(ctx, id, 2)
	require.NoError(t, err)
	assert.True(t, cleaned)

	dirty, err = c.DirtyProjects(ctx)
	require.NoError(t, err)
	assert.NotContains(t, dirty, id.String())
}
