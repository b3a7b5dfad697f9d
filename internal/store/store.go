// Package store provides persistent upload-history storage for the claims
// service. It uses BoltDB as the underlying storage engine to record one row
// per processed upload: filename, artifact URL, processing status, and
// timestamp.
//
// The store is independent of the prediction core; a failed or absent store
// never blocks a pipeline run.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const reportsBucket = "reports" // Bucket name for processed-upload rows

// Report is one persisted row per processed upload.
type Report struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ArtifactURL string    `json:"artifact_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists upload history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures the
// reports bucket exists. Returns an error if the database cannot be opened.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "claimsight.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(reportsBucket)); err != nil {
			return fmt.Errorf("create reports bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveReport stores one upload row. The key embeds the creation timestamp so
// cursor order is chronological.
func (s *Store) SaveReport(report Report) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(reportsBucket))

		data, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}

		key := fmt.Sprintf("%020d_%s", report.CreatedAt.UnixNano(), report.ID)
		return b.Put([]byte(key), data)
	})
}

// ListReports returns up to limit rows, most recent first. A limit of 0
// returns everything.
func (s *Store) ListReports(limit int) ([]Report, error) {
	var reports []Report

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(reportsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var report Report
			if err := json.Unmarshal(v, &report); err != nil {
				continue // Skip malformed rows
			}
			reports = append(reports, report)
			if limit > 0 && len(reports) >= limit {
				return nil
			}
		}
		return nil
	})

	return reports, err
}
