// Package memory provides an in-process persistence layer implementation.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

// Store keeps documents, credentials, and sessions in maps guarded by one lock.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	failure     error
	documents   map[string]map[string]persistence.Document
	credentials map[string]persistence.Credential
	sessions    map[string]persistence.Session
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		now:         time.Now,
		documents:   make(map[string]map[string]persistence.Document),
		credentials: make(map[string]persistence.Credential),
		sessions:    make(map[string]persistence.Session),
	}
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// Fail makes every document operation return err wrapped in ErrBackendUnavailable until
// Fail(nil) is called.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) failedLocked(op string) error {
	if s.failure == nil {
		return nil
	}
	return fmt.Errorf("%w: memory %s: %v", persistence.ErrBackendUnavailable, op, s.failure)
}

// --- DocumentStore implementation ---

// ListAll returns the documents of collection ordered by key.
func (s *Store) ListAll(_ context.Context, collection string) ([]persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failedLocked("list"); err != nil {
		return nil, err
	}

	docs := make([]persistence.Document, 0, len(s.documents[collection]))
	for _, doc := range s.documents[collection] {
		docs = append(docs, cloneDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Key < docs[j].Key
	})
	return docs, nil
}

// GetByKey retrieves a document.
func (s *Store) GetByKey(_ context.Context, collection, key string) (persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failedLocked("get"); err != nil {
		return persistence.Document{}, err
	}

	doc, ok := s.documents[collection][key]
	if !ok {
		return persistence.Document{}, persistence.ErrNotFound
	}
	return cloneDocument(doc), nil
}

// SetByKey creates or replaces a document.
func (s *Store) SetByKey(_ context.Context, collection, key string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failedLocked("set"); err != nil {
		return err
	}
	s.putLocked(collection, key, data)
	return nil
}

// CreateByKey stores a document only when the key is free.
func (s *Store) CreateByKey(_ context.Context, collection, key string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failedLocked("create"); err != nil {
		return err
	}
	if _, ok := s.documents[collection][key]; ok {
		return persistence.ErrAlreadyExists
	}
	s.putLocked(collection, key, data)
	return nil
}

func (s *Store) putLocked(collection, key string, data json.RawMessage) {
	docs, ok := s.documents[collection]
	if !ok {
		docs = make(map[string]persistence.Document)
		s.documents[collection] = docs
	}

	now := s.now().UTC()
	doc := persistence.Document{Collection: collection, Key: key, Data: append(json.RawMessage(nil), data...), CreatedAt: now, UpdatedAt: now}
	if existing, ok := docs[key]; ok {
		doc.CreatedAt = existing.CreatedAt
	}
	docs[key] = doc
}

// --- CredentialRepository implementation ---

// PutCredential creates or replaces the credential for its email.
func (s *Store) PutCredential(_ context.Context, credential persistence.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(credential.Email))
	if email == "" {
		return fmt.Errorf("memory: credential email is required")
	}
	credential.Email = email
	if existing, ok := s.credentials[email]; ok {
		credential.CreatedAt = existing.CreatedAt
	}
	s.credentials[email] = credential
	return nil
}

// GetCredential retrieves a credential by email.
func (s *Store) GetCredential(_ context.Context, email string) (persistence.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, ok := s.credentials[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return persistence.Credential{}, persistence.ErrNotFound
	}
	return credential, nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session.
func (s *Store) CreateSession(_ context.Context, session persistence.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(session.Token) == "" {
		return fmt.Errorf("memory: session token is required")
	}
	if _, ok := s.sessions[session.Token]; ok {
		return persistence.ErrAlreadyExists
	}
	s.sessions[session.Token] = session
	return nil
}

// GetSession retrieves a session by token.
func (s *Store) GetSession(_ context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// ListSessions returns every stored session ordered by creation time.
func (s *Store) ListSessions(context.Context) ([]persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]persistence.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sortSessions(sessions)
	return sessions, nil
}

// DeleteSession removes a session by token.
func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.sessions, token)
	return nil
}

// DeleteExpiredSessions removes sessions that expired on or before reference and returns them.
func (s *Store) DeleteExpiredSessions(_ context.Context, reference time.Time) ([]persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []persistence.Session
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			expired = append(expired, session)
			delete(s.sessions, token)
		}
	}
	sortSessions(expired)
	return expired, nil
}

// --- Helpers ---

func cloneDocument(doc persistence.Document) persistence.Document {
	doc.Data = append(json.RawMessage(nil), doc.Data...)
	return doc
}

func sortSessions(sessions []persistence.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].Token < sessions[j].Token
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
}
