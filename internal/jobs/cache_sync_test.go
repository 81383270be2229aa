package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/emrgen/notebook/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu      sync.Mutex
	content map[string]string
	dirty   map[string]int64
}

func newMemCache() *memCache {
	return &memCache{content: map[string]string{}, dirty: map[string]int64{}}
}

func (m *memCache) GetContent(_ context.Context, id uuid.UUID) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[id.String()]
	return c, ok, nil
}

func (m *memCache) SetContent(_ context.Context, id uuid.UUID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[id.String()] = content
	m.dirty[id.String()]++
	return nil
}

func (m *memCache) DirtyProjects(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.dirty))
	for k, v := range m.dirty {
		out[k] = v
	}
	return out, nil
}

func (m *memCache) MarkClean(_ context.Context, id uuid.UUID, seq int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty[id.String()] != seq {
		return false, nil
	}
	delete(m.dirty, id.String())
	return true, nil
}

func (m *memCache) DeleteProject(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.content, id.String())
	delete(m.dirty, id.String())
	return nil
}

type recordingWriter struct {
	written map[uuid.UUID]string
	fail    uuid.UUID
	deleted uuid.UUID
}

func (w *recordingWriter) WriteContent(_ context.Context, id uuid.UUID, html string) error {
	if id == w.fail {
		return errors.New("store down")
	}
	if id == w.deleted {
		return store.ErrProjectNotFound
	}
	w.written[id] = html
	return nil
}

func TestCacheSyncTask(t *testing.T) {
	ctx := context.TODO()
	c := newMemCache()
	ok, failing := uuid.New(), uuid.New()
	require.NoError(t, c.SetContent(ctx, ok, "<p>a</p>"))
	require.NoError(t, c.SetContent(ctx, ok, "<p>b</p>"))
	require.NoError(t, c.SetContent(ctx, failing, "<p>c</p>"))

	w := &recordingWriter{written: map[uuid.UUID]string{}, fail: failing}
	task := NewCacheSyncTask("@every 5s", c, w)
	assert.Equal(t, "cache_sync", task.Name())
	assert.Equal(t, "@every 5s", task.Schedule())

	n, err := task.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, map[uuid.UUID]string{ok: "<p>b</p>"}, w.written)

	dirty, err := c.DirtyProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{failing.String(): 1}, dirty)

	w.fail = uuid.Nil
	n, err = task.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	dirty, err = c.DirtyProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestCacheSyncTask_DeletedProject(t *testing.T) {
	ctx := context.TODO()
	c := newMemCache()
	gone := uuid.New()
	require.NoError(t, c.SetContent(ctx, gone, "<p>late write</p>"))

	w := &recordingWriter{written: map[uuid.UUID]string{}, deleted: gone}
	task := NewCacheSyncTask("", c, w)

	n, err := task.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, w.written)

	dirty, err := c.DirtyProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
	_, ok, err := c.GetContent(ctx, gone)
	require.NoError(t, err)
	assert.False(t, ok)
}
