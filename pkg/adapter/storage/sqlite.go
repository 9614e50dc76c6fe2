package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type entry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (entry) TableName() string {
	return "kv_entries"
}

// SQLite keeps device-local state in a single SQLite file. Both the
// foreground and the background process open the same file.
type SQLite struct {
	db *gorm.DB
}

var _ interfaces.KVStore = &SQLite{}

// NewSQLite opens path, or an in-memory database when path is empty.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	// immediate transactions take the write lock at BEGIN, so two processes
	// running Update on the same file queue up instead of both reading the
	// old value
	dsn += "?_busy_timeout=5000&_txlock=immediate"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open local state",
			goerr.T(errs.TagStorage),
			goerr.V("path", path))
	}

	sqldb, err := db.DB()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get sql handle", goerr.T(errs.TagStorage))
	}
	sqldb.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate local state",
			goerr.T(errs.TagStorage),
			goerr.V("path", path))
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	result := s.db.WithContext(ctx).First(&e, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(result.Error, "failed to read local state",
			goerr.T(errs.TagStorage),
			goerr.TV(errutil.StorageKey, key))
	}
	return e.Value, nil
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	e := entry{Key: key, Value: value, UpdatedAt: clock.Now(ctx)}
	if err := s.db.WithContext(ctx).Save(&e).Error; err != nil {
		return goerr.Wrap(err, "failed to write local state",
			goerr.T(errs.TagStorage),
			goerr.TV(errutil.StorageKey, key))
	}
	return nil
}

// Update runs fn inside one immediate transaction.
func (s *SQLite) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e entry
		var old []byte
		result := tx.First(&e, "key = ?", key)
		switch {
		case result.Error == nil:
			old = e.Value
		case !errors.Is(result.Error, gorm.ErrRecordNotFound):
			return goerr.Wrap(result.Error, "failed to read local state",
				goerr.T(errs.TagStorage),
				goerr.TV(errutil.StorageKey, key))
		}

		value, err := fn(old)
		if err != nil {
			return err
		}
		if value == nil {
			return nil
		}

		next := entry{Key: key, Value: value, UpdatedAt: clock.Now(ctx)}
		if err := tx.Save(&next).Error; err != nil {
			return goerr.Wrap(err, "failed to write local state",
				goerr.T(errs.TagStorage),
				goerr.TV(errutil.StorageKey, key))
		}
		return nil
	})
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&entry{}, "key = ?", key).Error; err != nil {
		return goerr.Wrap(err, "failed to delete local state",
			goerr.T(errs.TagStorage),
			goerr.TV(errutil.StorageKey, key))
	}
	return nil
}

func (s *SQLite) Close() error {
	sqldb, err := s.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get sql handle", goerr.T(errs.TagStorage))
	}
	return sqldb.Close()
}
