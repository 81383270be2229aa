package cache

import (
	"context"

	"github.com/google/uuid"
)

// ProjectCache holds project content ahead of the store. Written content is
// marked dirty until a sync job has written it through.
type ProjectCache interface {
	// GetContent gets the cached content of a project.
	GetContent(ctx context.Context, id uuid.UUID) (string, bool, error)
	// SetContent caches the content of a project and marks it dirty.
	SetContent(ctx context.Context, id uuid.UUID, content string) error
	// DirtyProjects returns the dirty projects with their write sequence.
	DirtyProjects(ctx context.Context) (map[string]int64, error)
	// MarkClean clears the dirty mark unless the project was written after seq.
	MarkClean(ctx context.Context, id uuid.UUID, seq int64) (bool, error)
	// DeleteProject drops a project from the cache.
	DeleteProject(ctx context.Context, id uuid.UUID) error
}
