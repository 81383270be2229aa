package jobs

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/notebook/internal/store"
	"github.com/sirupsen/logrus"
)

// BackupCleaner thins out project backups: of the backups created within
// one window only the first is kept, per project. The newest backup of a
// project is never removed.
type BackupCleaner struct {
	store  store.ProjectBackupStore
	window time.Duration
	cron   string
	now    func() time.Time
}

func NewBackupCleaner(schedule string, window time.Duration, store store.ProjectBackupStore) *BackupCleaner {
	return &BackupCleaner{
		store:  store,
		window: window,
		cron:   schedule,
		now:    time.Now,
	}
}

func (c *BackupCleaner) Name() string {
	return "backup_cleaner"
}

func (c *BackupCleaner) Schedule() string {
	return c.cron
}

func (c *BackupCleaner) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := c.Clean(ctx); err != nil {
		logrus.Errorf("clean backups: %v", err)
	}
}

// Clean looks at the backups of the last two windows and removes the
// redundant ones. It returns the number of backups removed.
func (c *BackupCleaner) Clean(ctx context.Context) (int, error) {
	now := c.now()
	backups, err := c.store.ListBackupsCreatedBetween(ctx, now.Add(-2*c.window), now.Add(time.Second))
	if err != nil {
		return 0, err
	}

	newest := make(map[string]int64)
	for _, b := range backups {
		if b.Version > newest[b.ProjectID] {
			newest[b.ProjectID] = b.Version
		}
	}

	kept := make(map[string]mapset.Set[int64])
	remove := make(map[string][]int64)
	count := 0
	for _, b := range backups {
		slot := b.CreatedAt.Truncate(c.window).Unix()
		if kept[b.ProjectID] == nil {
			kept[b.ProjectID] = mapset.NewThreadUnsafeSet[int64]()
		}
		if !kept[b.ProjectID].Contains(slot) || b.Version == newest[b.ProjectID] {
			kept[b.ProjectID].Add(slot)
			continue
		}
		remove[b.ProjectID] = append(remove[b.ProjectID], b.Version)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if err := c.store.DeleteProjectBackups(ctx, remove); err != nil {
		return 0, err
	}

	logrus.Infof("removed %d backups", count)
	return count, nil
}
