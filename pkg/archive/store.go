package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/korjavin/mensaplan/pkg/logger"
	"github.com/korjavin/mensaplan/pkg/models"
)

// ErrNotArchived is returned when no menu is stored for a canteen and date
var ErrNotArchived = errors.New("menu not archived")

const keyPrefix = "menu:"

// Store represents a BadgerDB menu archive
type Store struct {
	db     *badger.DB
	logger *logger.Logger
}

// Open opens (creating if needed) the archive in dataDir
func Open(dataDir string) (*Store, error) {
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get absolute path")
	}

	l := logger.New("archive")
	opts := badger.DefaultOptions(absPath)
	opts.Logger = badgerLogger{l}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open BadgerDB")
	}

	l.Info("BadgerDB opened at %s", absPath)
	return &Store{db: db, logger: l}, nil
}

// Close closes the BadgerDB database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func menuKey(canteen string, date models.Date) []byte {
	return []byte(canteenPrefix(canteen) + date.String())
}

func canteenPrefix(canteen string) string {
	return keyPrefix + canteen + ":"
}

// PutAll stores menus of a canteen in one transaction, replacing earlier
// copies of the same dates
func (s *Store) PutAll(canteen string, menus map[models.Date]models.Menu) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for date, m := range menus {
			m.Date = date
			data, err := json.Marshal(m)
			if err != nil {
				return errors.Wrap(err, "failed to marshal menu")
			}
			if err := txn.Set(menuKey(canteen, date), data); err != nil {
				return errors.Wrapf(err, "failed to store menu %s", date)
			}
		}
		return nil
	})
}

// Get retrieves the archived menu of a canteen for a date
func (s *Store) Get(canteen string, date models.Date) (models.Menu, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(menuKey(canteen, date))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Menu{}, fmt.Errorf("%w: canteen %s on %s", ErrNotArchived, canteen, date)
	}
	if err != nil {
		return models.Menu{}, errors.Wrap(err, "failed to get menu")
	}

	var m models.Menu
	if err := json.Unmarshal(data, &m); err != nil {
		return models.Menu{}, errors.Wrap(err, "failed to decode menu")
	}
	return m, nil
}

// Menus returns every archived menu of a canteen
func (s *Store) Menus(canteen string) (map[models.Date]models.Menu, error) {
	menus := make(map[models.Date]models.Menu)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(canteenPrefix(canteen))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var m models.Menu
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return errors.Wrapf(err, "failed to decode %s", item.Key())
			}
			menus[m.Date] = m
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list menus")
	}
	return menus, nil
}

// Dates returns the archived dates of a canteen in ascending order
func (s *Store) Dates(canteen string) ([]models.Date, error) {
	var dates []models.Date
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := canteenPrefix(canteen)
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			date, err := models.ParseDate(strings.TrimPrefix(string(it.Item().Key()), prefix))
			if err != nil {
				return err
			}
			dates = append(dates, date)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list dates")
	}
	return dates, nil
}

// RunGC runs garbage collection on the database
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// StartGCRoutine starts a goroutine that periodically runs garbage
// collection until ctx is done
func (s *Store) StartGCRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// ErrNoRewrite only means there was nothing to collect
				if err := s.RunGC(); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Error("BadgerDB GC error: %v", err)
				}
			}
		}
	}()
	s.logger.Info("Started BadgerDB GC routine with interval %v", interval)
}

// badgerLogger routes Badger's internal messages through our logger. Badger
// is chatty at info level, so those go to debug.
type badgerLogger struct {
	l *logger.Logger
}

func (b badgerLogger) Errorf(format string, v ...interface{}) {
	b.l.Error(strings.TrimSpace(format), v...)
}

func (b badgerLogger) Warningf(format string, v ...interface{}) {
	b.l.Warn(strings.TrimSpace(format), v...)
}

func (b badgerLogger) Infof(format string, v ...interface{}) {
	b.l.Debug(strings.TrimSpace(format), v...)
}

func (b badgerLogger) Debugf(format string, v ...interface{}) {
	b.l.Debug(strings.TrimSpace(format), v...)
}
