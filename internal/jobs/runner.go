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

// TaskExecutor runs jobs on their cron schedule. A job that is still
// running when its next turn comes is skipped for that turn.
type TaskExecutor struct {
	cron     *cron.Cron
	jobs     []Job
	cronJobs []CronJob
	running  mapset.Set[string]
	mu       sync.Mutex
}

func NewTaskExecutor(jobs []Job, cronJobs []CronJob) *TaskExecutor {
	return &TaskExecutor{
		cron:     cron.New(),
		jobs:     jobs,
		cronJobs: cronJobs,
		running:  mapset.NewThreadUnsafeSet[string](),
	}
}

// Run schedules the jobs and starts the cron in its own goroutine. Plain
// jobs run every second.
func (t *TaskExecutor) Run() error {
	for _, job := range t.cronJobs {
		if err := t.cron.AddFunc(job.Schedule(), t.exclusive(job)); err != nil {
			logrus.Errorf("failed to add task %s to cron: %v", job.Name(), err)
			return err
		}
	}

	for _, job := range t.jobs {
		if err := t.cron.AddFunc("@every 1s", t.exclusive(job)); err != nil {
			return err
		}
	}

	t.cron.Start()
	return nil
}

func (t *TaskExecutor) exclusive(job Job) func() {
	return func() {
		t.mu.Lock()
		if t.running.Contains(job.Name()) {
			t.mu.Unlock()
			logrus.Warnf("task %s is already running", job.Name())
			return
		}
		t.running.Add(job.Name())
		t.mu.Unlock()

		defer func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.running.Remove(job.Name())
		}()

		job.Run()
	}
}

// Running reports whether the named job is running now.
func (t *TaskExecutor) Running(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running.Contains(name)
}

func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()
}
