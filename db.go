package main

import (
	"log"
	"os"
	"path/filepath"

	"audio-tools/config"
	"audio-tools/models"

	"github.com/gofrs/flock"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func initDb(config *config.Config) *gorm.DB {
	err := os.MkdirAll(filepath.Dir(config.DBPath), 0700)

	if err != nil && filepath.Dir(config.DBPath) != "." {
		log.Fatalf("failed to create the database directory: %v", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(getLogLevel(config)),
	}

	return connect(config.DBPath, gormConfig)
}

func getLogLevel(config *config.Config) logger.LogLevel {
	if config.IsDebug {
		return logger.Info
	}

	return logger.Silent
}

func connect(dsn string, gormConfig *gorm.Config) *gorm.DB {
	db, err := GetDriver(dsn, gormConfig)

	if err != nil {
		log.Fatalf("failed to connect to the database: %v", err)
	}

	err = db.AutoMigrate(
		&models.File{},
		&models.Fingerprint{},
		&models.GroupOverride{},
		&models.OperationLog{},
	)

	if err != nil {
		log.Fatalf("failed to migrate the database")
	}

	return db
}

// The inventory store and journal directory assume a single process
// instance; a lock file next to the database enforces that.
func acquireProcessLock(dbPath string) (*flock.Flock, error) {
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()

	if err != nil {
		return nil, err
	}

	if !locked {
		return nil, ErrDatabaseInUse
	}

	return lock, nil
}
