package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// IdleSweeper closes editing sessions nobody used for idle.
type IdleSweeper interface {
	SweepIdle(ctx context.Context, idle time.Duration) int
}

type SessionSweepTask struct {
	sweeper IdleSweeper
	idle    time.Duration
	cron    string
}

var _ CronJob = (*SessionSweepTask)(nil)

func NewSessionSweepTask(interval string, idle time.Duration, sweeper IdleSweeper) *SessionSweepTask {
	return &SessionSweepTask{
		sweeper: sweeper,
		idle:    idle,
		cron:    interval,
	}
}

func (c *SessionSweepTask) Name() string {
	return "session_sweep"
}

func (c *SessionSweepTask) Schedule() string {
	return c.cron
}

func (c *SessionSweepTask) Run() {
	if n := c.sweeper.SweepIdle(context.Background(), c.idle); n > 0 {
		logrus.Infof("closed %d idle sessions", n)
	}
}
