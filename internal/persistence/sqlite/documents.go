package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

// ListAll returns the documents of collection ordered by key.
func (s *Store) ListAll(ctx context.Context, collection string) ([]persistence.Document, error) {
	const query = `
		SELECT collection, key, data, created_at, updated_at
		FROM documents
		WHERE collection = ?
		ORDER BY key ASC
	`
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var docs []persistence.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return docs, nil
}

// GetByKey retrieves a document or returns persistence.ErrNotFound.
func (s *Store) GetByKey(ctx context.Context, collection, key string) (persistence.Document, error) {
	const query = `
		SELECT collection, key, data, created_at, updated_at
		FROM documents
		WHERE collection = ? AND key = ?
	`
	return scanDocument(s.db.QueryRowContext(ctx, query, collection, key))
}

// SetByKey creates or replaces a document, keeping its original creation time.
func (s *Store) SetByKey(ctx context.Context, collection, key string, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("sqlite: document %s/%s is not valid JSON", collection, key)
	}
	now := formatTime(s.now())
	const query = `
		INSERT INTO documents (collection, key, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, collection, key, string(data), now, now); err != nil {
		return mapError(err)
	}
	return nil
}

// CreateByKey stores a document only when the key is free, otherwise it returns
// persistence.ErrAlreadyExists. The check and the write are one statement.
func (s *Store) CreateByKey(ctx context.Context, collection, key string, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("sqlite: document %s/%s is not valid JSON", collection, key)
	}
	now := formatTime(s.now())
	const query = `
		INSERT INTO documents (collection, key, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, key) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, collection, key, string(data), now, now)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrAlreadyExists
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (persistence.Document, error) {
	var (
		doc                  persistence.Document
		data                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&doc.Collection, &doc.Key, &data, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return persistence.Document{}, persistence.ErrNotFound
		}
		return persistence.Document{}, mapError(err)
	}
	doc.Data = json.RawMessage(data)

	var err error
	if doc.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Document{}, err
	}
	if doc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Document{}, err
	}
	return doc, nil
}
