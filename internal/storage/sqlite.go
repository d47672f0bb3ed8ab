// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rohanmatta11/CrowdSense/internal/data"
)

// Store is the persistent record store behind crowdstored. It owns record
// identity and timestamp assignment; clients only supply the people-count and
// coordinates. Records are inserted and deleted, never updated.
type Store struct {
	gdb *gorm.DB
	db  *sql.DB
}

type crowdRecord struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	PeopleCount int
	Lat         float64
	Lon         float64
	CreatedAt   time.Time `gorm:"index:idx_created_at"`
}

func (crowdRecord) TableName() string { return "crowd_records" }

// Open opens (or creates) the SQLite database at path and migrates the
// records table.
func Open(path string) (*Store, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	db, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := gdb.AutoMigrate(&crowdRecord{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{gdb: gdb, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert creates a record with a fresh id and a UTC creation timestamp.
func (s *Store) Insert(ctx context.Context, peopleCount int, lat, lon float64) (data.CrowdRecord, error) {
	row := crowdRecord{
		ID:          uuid.NewString(),
		PeopleCount: peopleCount,
		Lat:         lat,
		Lon:         lon,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return data.CrowdRecord{}, fmt.Errorf("inserting record: %w", err)
	}
	return row.toRecord(), nil
}

// All returns every live record, oldest first.
func (s *Store) All(ctx context.Context) ([]data.CrowdRecord, error) {
	var rows []crowdRecord
	if err := s.gdb.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("selecting records: %w", err)
	}
	records := make([]data.CrowdRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// Delete removes a record by id. An absent id is a success: concurrent
// reconcilers routinely race to delete the same record.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.gdb.WithContext(ctx).Delete(&crowdRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	return nil
}

func (r crowdRecord) toRecord() data.CrowdRecord {
	return data.CrowdRecord{
		ID:          r.ID,
		PeopleCount: r.PeopleCount,
		Lat:         r.Lat,
		Lon:         r.Lon,
		CreatedAt:   r.CreatedAt,
	}
}
