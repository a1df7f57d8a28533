package store

import (
	"database/sql"
	"fmt"

	"github.com/emersoneims/generator-oracle/internal/model"
)

// HistoryStore is the append-only diagnosis history log. Entries are listed
// in insertion order for display.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Append(e *model.DiagnosisEntry) (*model.DiagnosisEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO diagnosis_history (controller_brand, controller_model, fault_code, summary, resolved)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ControllerBrand, e.ControllerModel, e.FaultCode, e.Summary, boolToInt(e.Resolved),
	)
	if err != nil {
		return nil, fmt.Errorf("append diagnosis entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HistoryStore) GetByID(id int64) (*model.DiagnosisEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, controller_brand, controller_model, fault_code, summary, resolved, created_at
		 FROM diagnosis_history WHERE id = ?`, id,
	)
	e, err := scanDiagnosisEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get diagnosis entry: %w", err)
	}
	return e, nil
}

// List returns all history entries oldest-first.
func (s *HistoryStore) List() ([]model.DiagnosisEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, controller_brand, controller_model, fault_code, summary, resolved, created_at
		 FROM diagnosis_history ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list diagnosis history: %w", err)
	}
	defer rows.Close()

	var entries []model.DiagnosisEntry
	for rows.Next() {
		e, err := scanDiagnosisEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagnosis entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *HistoryStore) MarkResolved(id int64) error {
	_, err := s.db.Exec(`UPDATE diagnosis_history SET resolved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark diagnosis resolved: %w", err)
	}
	return nil
}

func scanDiagnosisEntry(scanner interface{ Scan(...any) error }) (*model.DiagnosisEntry, error) {
	var e model.DiagnosisEntry
	var resolved int
	err := scanner.Scan(&e.ID, &e.ControllerBrand, &e.ControllerModel, &e.FaultCode, &e.Summary, &resolved, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Resolved = resolved != 0
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
