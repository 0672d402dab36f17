package roster

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteStore{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS recipients (
			id TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_recipients_is_active ON recipients(is_active);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, email, phone, role, category, is_active
		FROM recipients
		ORDER BY full_name, id`)
	if err != nil {
		return nil, fmt.Errorf("error listing recipients: %w", err)
	}
	defer rows.Close()

	recipients := []models.Recipient{}
	for rows.Next() {
		var r models.Recipient
		if err := rows.Scan(&r.ID, &r.FullName, &r.Email, &r.Phone, &r.Role, &r.Category, &r.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning recipient: %w", err)
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (models.Recipient, error) {
	var r models.Recipient
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, phone, role, category, is_active
		FROM recipients WHERE id = ?`, id,
	).Scan(&r.ID, &r.FullName, &r.Email, &r.Phone, &r.Role, &r.Category, &r.IsActive)
	if err == sql.ErrNoRows {
		return models.Recipient{}, ErrNotFound
	}
	if err != nil {
		return models.Recipient{}, fmt.Errorf("error getting recipient: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) Create(ctx context.Context, r models.Recipient) (models.Recipient, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recipients (id, full_name, email, phone, role, category, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FullName, r.Email, r.Phone, r.Role, r.Category, r.IsActive, now, now)
	if err != nil {
		return models.Recipient{}, fmt.Errorf("error creating recipient: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, u Update) (models.Recipient, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Recipient{}, err
	}

	if u.FullName != nil {
		current.FullName = *u.FullName
	}
	if u.Email != nil {
		current.Email = *u.Email
	}
	if u.Phone != nil {
		current.Phone = *u.Phone
	}
	if u.Role != nil {
		current.Role = *u.Role
	}
	if u.Category != nil {
		current.Category = *u.Category
	}
	if u.IsActive != nil {
		current.IsActive = *u.IsActive
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE recipients
		SET full_name = ?, email = ?, phone = ?, role = ?, category = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		current.FullName, current.Email, current.Phone, current.Role, current.Category, current.IsActive,
		time.Now().UTC(), id)
	if err != nil {
		return models.Recipient{}, fmt.Errorf("error updating recipient: %w", err)
	}
	return current, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting recipient: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting recipient: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
