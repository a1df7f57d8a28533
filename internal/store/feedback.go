package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/emersoneims/generator-oracle/internal/model"
)

// FeedbackStore is the offline-first feedback queue. Entries accumulate
// locally and are flushed to the business when connectivity allows; the
// UUID lets the receiving end drop replays.
type FeedbackStore struct {
	db *sql.DB
}

func NewFeedbackStore(db *sql.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

func (s *FeedbackStore) Enqueue(category, message, contact string) (*model.FeedbackEntry, error) {
	id := uuid.NewString()
	result, err := s.db.Exec(
		`INSERT INTO feedback_queue (uuid, category, message, contact) VALUES (?, ?, ?, ?)`,
		id, category, message, contact,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue feedback: %w", err)
	}
	rowID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getByID(rowID)
}

func (s *FeedbackStore) getByID(id int64) (*model.FeedbackEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, uuid, category, message, contact, synced, created_at
		 FROM feedback_queue WHERE id = ?`, id,
	)
	e, err := scanFeedbackEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback entry: %w", err)
	}
	return e, nil
}

// ListPending returns unsynced entries oldest-first.
func (s *FeedbackStore) ListPending() ([]model.FeedbackEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, uuid, category, message, contact, synced, created_at
		 FROM feedback_queue WHERE synced = 0 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending feedback: %w", err)
	}
	defer rows.Close()

	var entries []model.FeedbackEntry
	for rows.Next() {
		e, err := scanFeedbackEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *FeedbackStore) MarkSynced(id int64) error {
	_, err := s.db.Exec(`UPDATE feedback_queue SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark feedback synced: %w", err)
	}
	return nil
}

func scanFeedbackEntry(scanner interface{ Scan(...any) error }) (*model.FeedbackEntry, error) {
	var e model.FeedbackEntry
	var synced int
	err := scanner.Scan(&e.ID, &e.UUID, &e.Category, &e.Message, &e.Contact, &synced, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Synced = synced != 0
	return &e, nil
}
