package persistence

import (
	"context"
	"encoding/json"
	"time"
)

// DocumentStore is a collection + key document database.
type DocumentStore interface {
	ListAll(ctx context.Context, collection string) ([]Document, error)
	GetByKey(ctx context.Context, collection, key string) (Document, error)
	SetByKey(ctx context.Context, collection, key string, data json.RawMessage) error
	CreateByKey(ctx context.Context, collection, key string, data json.RawMessage) error
}

// CredentialRepository stores identity provider accounts keyed by normalized email.
type CredentialRepository interface {
	PutCredential(ctx context.Context, credential Credential) error
	GetCredential(ctx context.Context, email string) (Credential, error)
}

// SessionRepository stores identity provider sessions keyed by token.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) ([]Session, error)
}
