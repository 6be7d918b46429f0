package jobs

import (
	"context"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/redline/internal/model"
	"github.com/sirupsen/logrus"
)

type BackupStore interface {
	ListDocumentBackupsByTime(ctx context.Context, from, to time.Time) ([]*model.DocumentBackup, error)
	DeleteDocumentBackups(ctx context.Context, backups map[string]goset.Set[int64]) error
}

// BackupCleaner thins out the backups written by frequent saves: of the
// backups of one document created in the same window only the first is
// kept.
type BackupCleaner struct {
	store    BackupStore
	schedule string
	window   time.Duration
	now      func() time.Time
}

var _ CronJob = (*BackupCleaner)(nil)

func NewBackupCleaner(store BackupStore, schedule string, window time.Duration) *BackupCleaner {
	return &BackupCleaner{
		store:    store,
		schedule: schedule,
		window:   window,
		now:      time.Now,
	}
}

func (c *BackupCleaner) Name() string {
	return "backup_cleaner"
}

func (c *BackupCleaner) Schedule() string {
	return c.schedule
}

func (c *BackupCleaner) Run() {
	if _, err := c.Clean(context.Background()); err != nil {
		logrus.Errorf("Error cleaning the backups: %v", err)
	}
}

// Clean looks at the backups of the last two windows and removes the
// redundant ones. It returns the number of removed backups.
func (c *BackupCleaner) Clean(ctx context.Context) (int, error) {
	now := c.now()
	backups, err := c.store.ListDocumentBackupsByTime(ctx, now.Add(-2*c.window), now)
	if err != nil {
		return 0, err
	}

	remove := redundantBackups(backups, c.window)
	count := 0
	for _, versions := range remove {
		count += versions.Cardinality()
	}
	if count == 0 {
		return 0, nil
	}

	if err := c.store.DeleteDocumentBackups(ctx, remove); err != nil {
		return 0, err
	}

	logrus.Infof("Removed %d backups of %d documents", count, len(remove))
	return count, nil
}

// redundantBackups expects backups ordered by document and creation time.
func redundantBackups(backups []*model.DocumentBackup, window time.Duration) map[string]goset.Set[int64] {
	remove := make(map[string]goset.Set[int64])
	lastID := ""
	lastBackupTime := time.Time{}
	for _, backup := range backups {
		backupTime := backup.CreatedAt.Truncate(window)
		if backup.ID != lastID || !backupTime.Equal(lastBackupTime) {
			lastID, lastBackupTime = backup.ID, backupTime
			continue
		}

		if _, ok := remove[backup.ID]; !ok {
			remove[backup.ID] = goset.NewSet[int64]()
		}
		remove[backup.ID].Add(backup.Version)
	}
	return remove
}
