package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/emrgen/notebook/internal/cache"
	"github.com/emrgen/notebook/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContentWriter writes project content through to the store.
type ContentWriter interface {
	WriteContent(ctx context.Context, projectID uuid.UUID, html string) error
}

// CacheSyncTask flushes dirty cached project content to the store.
type CacheSyncTask struct {
	cache  cache.ProjectCache
	writer ContentWriter
	cron   string
}

func NewCacheSyncTask(schedule string, cache cache.ProjectCache, writer ContentWriter) *CacheSyncTask {
	return &CacheSyncTask{
		cache:  cache,
		writer: writer,
		cron:   schedule,
	}
}

func (c *CacheSyncTask) Name() string {
	return "cache_sync"
}

func (c *CacheSyncTask) Schedule() string {
	return c.cron
}

func (c *CacheSyncTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := c.Sync(ctx); err != nil {
		logrus.Errorf("cache sync: %v", err)
	}
}

// Sync writes every dirty project through and returns how many were flushed.
func (c *CacheSyncTask) Sync(ctx context.Context) (int, error) {
	dirty, err := c.cache.DirtyProjects(ctx)
	if err != nil {
		return 0, err
	}

	flushed := 0
	for key, seq := range dirty {
		id, err := uuid.Parse(key)
		if err != nil {
			logrus.Warnf("skipping dirty project with bad id %q", key)
			continue
		}

		content, ok, err := c.cache.GetContent(ctx, id)
		if err != nil {
			logrus.Errorf("read cached content of project %s: %v", key, err)
			continue
		}
		if ok {
			err := c.writer.WriteContent(ctx, id, content)
			if errors.Is(err, store.ErrProjectNotFound) {
				logrus.Warnf("dropping cached content of deleted project %s", key)
				if err := c.cache.DeleteProject(ctx, id); err != nil {
					logrus.Errorf("drop project %s from cache: %v", key, err)
				}
				continue
			}
			if err != nil {
				logrus.Errorf("flush project %s: %v", key, err)
				continue
			}
			flushed++
		}

		if _, err := c.cache.MarkClean(ctx, id, seq); err != nil {
			logrus.Errorf("mark project %s clean: %v", key, err)
		}
	}

	if flushed > 0 {
		logrus.Infof("flushed %d cached projects", flushed)
	}
	return flushed, nil
}
