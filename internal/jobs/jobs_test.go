package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emrgen/notebook/internal/model"
	"github.com/emrgen/notebook/internal/store"
	"github.com/emrgen/notebook/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCleaner(t *testing.T) {
	ctx := context.TODO()
	s := store.NewGormStore(tester.NewDB(t))
	pid := uuid.NewString()

	for v := int64(1); v <= 4; v++ {
		require.NoError(t, s.CreateProjectBackup(ctx, &model.ProjectBackup{ProjectID: pid, Version: v}))
	}

	// one window spanning a day holds all four backups
	c := NewBackupCleaner("@every 1m", 24*time.Hour, s)
	c.now = func() time.Time { return time.Now().Add(time.Hour) }

	removed, err := c.Clean(ctx)
	require.NoError(t, err)

	backups, err := s.ListProjectBackups(ctx, uuid.MustParse(pid))
	require.NoError(t, err)

	versions := make([]int64, 0, len(backups))
	for _, b := range backups {
		versions = append(versions, b.Version)
	}
	assert.Contains(t, versions, int64(4))
	assert.Equal(t, 4-removed, len(versions))
	assert.LessOrEqual(t, len(versions), 3)

	removed, err = c.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

type blockingJob struct {
	runs    atomic.Int32
	release chan struct{}
}

func (b *blockingJob) Name() string     { return "blocking" }
func (b *blockingJob) Schedule() string { return "@every 1s" }
func (b *blockingJob) Run() {
	b.runs.Add(1)
	<-b.release
}

func TestGuardedSkipsOverlap(t *testing.T) {
	job := &blockingJob{release: make(chan struct{})}
	e := NewTaskExecutor(nil, []CronJob{job})
	run := guarded(&e.muCronJobs, e.runningCronJobs, job)

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	// a second tick while the first still runs returns immediately
	run()
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.release)
	<-done
	run()
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestFuncTask(t *testing.T) {
	var called bool
	task := NewFuncTask("sweep", "@every 1m", func() { called = true })
	assert.Equal(t, "sweep", task.Name())
	assert.Equal(t, "@every 1m", task.Schedule())
	task.Run()
	assert.True(t, called)
}
