package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

type Job interface {
	Name() string
	Run()
}

type CronJob interface {
	Schedule() string
	Job
}

// TaskExecutor runs cron jobs on their schedule and plain jobs every
// second. A job never overlaps with itself; a tick arriving while the job
// still runs is skipped.
type TaskExecutor struct {
	cron            *cron.Cron
	jobs            []Job
	cronJobs        []CronJob
	runningJobs     mapset.Set[string]
	runningCronJobs mapset.Set[string]
	muJobs          sync.Mutex
	muCronJobs      sync.Mutex
}

func NewTaskExecutor(jobs []Job, cronJobs []CronJob) *TaskExecutor {
	return &TaskExecutor{
		cron:            cron.New(),
		jobs:            jobs,
		cronJobs:        cronJobs,
		runningCronJobs: mapset.NewThreadUnsafeSet[string](),
		runningJobs:     mapset.NewThreadUnsafeSet[string](),
	}
}

func guarded(mu *sync.Mutex, running mapset.Set[string], job Job) func() {
	return func() {
		mu.Lock()
		if running.Contains(job.Name()) {
			mu.Unlock()
			logrus.Warnf("task %s is already running", job.Name())
			return
		}
		running.Add(job.Name())
		mu.Unlock()

		defer func() {
			mu.Lock()
			defer mu.Unlock()
			running.Remove(job.Name())
		}()

		job.Run()
	}
}

// Run the jobs in its own goroutine inside the cron.
func (t *TaskExecutor) Run() error {
	for _, job := range t.cronJobs {
		if err := t.cron.AddFunc(job.Schedule(), guarded(&t.muCronJobs, t.runningCronJobs, job)); err != nil {
			logrus.Errorf("failed to add task %s to cron: %v", job.Name(), err)
			return err
		}
	}

	for _, job := range t.jobs {
		if err := t.cron.AddFunc("@every 1s", guarded(&t.muJobs, t.runningJobs, job)); err != nil {
			logrus.Errorf("failed to add task %s to cron: %v", job.Name(), err)
			return err
		}
	}

	t.cron.Start()
	return nil
}

func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()
}
