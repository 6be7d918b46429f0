package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDb opens the configured database.
func OpenDb(cnf *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cnf.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cnf.Database.DSN)
	case "sqlite":
		dialector = sqlite.Open(cnf.Database.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cnf.Database.Driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// GetDb opens the configured database and exits on failure.
func GetDb(cnf *Config) *gorm.DB {
	db, err := OpenDb(cnf)
	if err != nil {
		logrus.Fatalf("error opening database: %v", err)
	}
	logrus.Infof("connected to %s database", cnf.Database.Driver)
	return db
}
