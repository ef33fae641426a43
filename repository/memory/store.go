// Package memory provides an in-memory submission store with the same
// contract as the Postgres repository. It backs local runs and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"intakebot/repository/models"
)

var errIncomplete = errors.New("refusing to persist a partial submission")

type Store struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Submission
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		nextID: 1,
		now:    time.Now,
	}
}

func (s *Store) InsertSubmission(_ context.Context, sub *models.Submission) (*models.Submission, error) {
	if !sub.Complete() {
		return nil, errIncomplete
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := *sub
	row.ID = s.nextID
	row.CreatedAt = s.now()
	s.nextID++
	s.rows = append(s.rows, row)

	return &row, nil
}

func (s *Store) PurgeExpired(_ context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	kept := s.rows[:0]
	var removed int64
	for _, row := range s.rows {
		if row.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept

	return removed, nil
}

// Get returns a copy of the stored row, if any.
func (s *Store) Get(id uint) (*models.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ID == id {
			copied := row
			return &copied, true
		}
	}
	return nil, false
}

// Len reports the number of stored submissions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
