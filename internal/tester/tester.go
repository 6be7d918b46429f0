package tester

import (
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/emrgen/redline/internal/model"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testPath string
	db       *gorm.DB
	server   *miniredis.Miniredis
)

// Setup opens a fresh sqlite database in a temporary directory and
// migrates it.
func Setup() {
	RemoveDBFile()

	_ = os.Setenv("ENV", "test")

	var err error
	testPath, err = os.MkdirTemp("", "redline-test-")
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(testPath+"/redline.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func RemoveDBFile() {
	if testPath == "" {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
	testPath = ""
}

// Redis returns a client of an in-process redis server, started on first
// use and flushed on every call.
func Redis() *redis.Client {
	if server == nil {
		var err error
		server, err = miniredis.Run()
		if err != nil {
			panic(err)
		}
	}
	server.FlushAll()

	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

// Teardown removes the database and stops the redis server.
func Teardown() {
	RemoveDBFile()
	if server != nil {
		server.Close()
		server = nil
	}
}
