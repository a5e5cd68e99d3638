package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

// PutCredential creates or replaces the credential for its email.
func (s *Store) PutCredential(ctx context.Context, credential persistence.Credential) error {
	email := strings.ToLower(strings.TrimSpace(credential.Email))
	if email == "" || credential.UID == "" {
		return fmt.Errorf("sqlite: credential email and uid are required")
	}
	now := formatTime(s.now())
	const query = `
		INSERT INTO credentials (email, uid, password_hash, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			uid = excluded.uid,
			password_hash = excluded.password_hash,
			disabled = excluded.disabled,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, email, credential.UID, credential.PasswordHash, credential.Disabled, now, now); err != nil {
		return mapError(err)
	}
	return nil
}

// GetCredential retrieves a credential by email.
func (s *Store) GetCredential(ctx context.Context, email string) (persistence.Credential, error) {
	const query = `
		SELECT email, uid, password_hash, disabled, created_at, updated_at
		FROM credentials
		WHERE email = ?
	`
	var (
		credential           persistence.Credential
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&credential.Email,
		&credential.UID,
		&credential.PasswordHash,
		&credential.Disabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Credential{}, mapError(err)
	}
	if credential.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Credential{}, err
	}
	if credential.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Credential{}, err
	}
	return credential, nil
}

const sessionColumns = `token, id, uid, email, expires_at, created_at`

// CreateSession stores a new session.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) error {
	if strings.TrimSpace(session.Token) == "" || session.ID == "" {
		return fmt.Errorf("sqlite: session id and token are required")
	}
	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		session.Token,
		session.ID,
		session.UID,
		session.Email,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
	)
	return mapError(err)
}

// GetSession retrieves a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = ?`
	return scanSession(s.db.QueryRowContext(ctx, query, token))
}

// ListSessions returns every stored session ordered by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]persistence.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at ASC, token ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// DeleteSession removes a session by token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired on or before reference and returns them.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) ([]persistence.Session, error) {
	cutoff := formatTime(reference)
	var expired []persistence.Session

	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + sessionColumns + ` FROM sessions WHERE expires_at <= ? ORDER BY created_at ASC, token ASC`
		rows, err := tx.QueryContext(ctx, query, cutoff)
		if err != nil {
			return mapError(err)
		}
		expired, err = scanSessions(rows)
		rows.Close()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, cutoff); err != nil {
			return mapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func scanSessions(rows *sql.Rows) ([]persistence.Session, error) {
	var sessions []persistence.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sessions, nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session              persistence.Session
		expiresAt, createdAt string
	)
	if err := row.Scan(&session.Token, &session.ID, &session.UID, &session.Email, &expiresAt, &createdAt); err != nil {
		return persistence.Session{}, mapError(err)
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
