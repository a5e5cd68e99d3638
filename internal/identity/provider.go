// Package identity is the built-in identity provider: it verifies credentials, issues
// sessions, and streams session changes to subscribers such as the admin gate.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

var (
	// ErrInvalidCredential is shared with the application layer so handlers map it once.
	ErrInvalidCredential  = application.ErrInvalidCredential
	ErrBackendUnavailable = errors.New("identity: backend unavailable")
	ErrSessionNotFound    = errors.New("identity: session not found")
)

// DefaultSessionTTL applies when no TTL option is given.
const DefaultSessionTTL = 24 * time.Hour

// MinPasswordLength is enforced when provisioning credentials.
const MinPasswordLength = 8

// Store is the persistence the provider needs.
type Store interface {
	persistence.CredentialRepository
	persistence.SessionRepository
}

// Session is an issued sign-in session.
type Session struct {
	ID        string
	Token     string
	UID       string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identity returns the principal the session belongs to.
func (s Session) Identity() application.Identity {
	return application.Identity{UID: s.UID, Email: s.Email}
}

// Option configures a Provider.
type Option func(*Provider)

func WithSessionTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDGenerator overrides how session ids and uids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(p *Provider) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// WithTokenGenerator overrides how session tokens are minted.
func WithTokenGenerator(newToken func() (string, error)) Option {
	return func(p *Provider) {
		if newToken != nil {
			p.newToken = newToken
		}
	}
}

// WithPasswordParams sets the argon2id parameters used for new credentials.
func WithPasswordParams(params Argon2idParams) Option {
	return func(p *Provider) {
		p.params = params
	}
}

type listener func(context.Context, application.SessionChange)

// Provider issues sessions and broadcasts their changes. Listeners are invoked
// synchronously and without internal locks held, so a listener may call SignOut.
type Provider struct {
	store    Store
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
	newToken func() (string, error)
	params   Argon2idParams
	logger   *slog.Logger

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]listener
}

// NewProvider creates a provider over store.
func NewProvider(store Store, opts ...Option) *Provider {
	p := &Provider{
		store:     store,
		ttl:       DefaultSessionTTL,
		now:       time.Now,
		newID:     uuid.NewString,
		newToken:  randomToken,
		params:    DefaultArgon2idParams,
		logger:    slog.Default(),
		listeners: make(map[uint64]listener),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "identity")
	return p
}

// SignIn verifies email and password and issues a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (Session, error) {
	normalized := application.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return Session{}, ErrInvalidCredential
	}

	credential, err := p.store.GetCredential(ctx, normalized)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Session{}, ErrInvalidCredential
		}
		return Session{}, p.unavailable("get credential", err)
	}
	if credential.Disabled {
		return Session{}, ErrInvalidCredential
	}
	if err := CheckPassword(credential.PasswordHash, password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			p.logger.Warn("stored password hash rejected", "uid", credential.UID, "error", err)
		}
		return Session{}, ErrInvalidCredential
	}

	token, err := p.newToken()
	if err != nil {
		return Session{}, p.unavailable("mint token", err)
	}
	now := p.now().UTC()
	session := Session{
		ID:        p.newID(),
		Token:     token,
		UID:       credential.UID,
		Email:     credential.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}
	if err := p.store.CreateSession(ctx, toRecord(session)); err != nil {
		return Session{}, p.unavailable("create session", err)
	}

	p.logger.Info("session issued", "uid", session.UID, "session_id", session.ID)
	identity := session.Identity()
	p.emit(ctx, application.SessionChange{Token: token, Identity: &identity, ExpiresAt: session.ExpiresAt})
	return session, nil
}

// SignOut ends the session for token. Unknown tokens are not an error; the null
// event is emitted either way.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := p.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return p.unavailable("delete session", err)
	}
	p.emit(ctx, application.SessionChange{Token: token})
	return nil
}

// Session returns the live session for token.
func (p *Provider) Session(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}
	record, err := p.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, p.unavailable("get session", err)
	}
	if !p.now().Before(record.ExpiresAt) {
		return Session{}, ErrSessionNotFound
	}
	return fromRecord(record), nil
}

// ExpireSessions removes expired sessions, emits a null event for each and
// returns how many were removed.
func (p *Provider) ExpireSessions(ctx context.Context) (int, error) {
	expired, err := p.store.DeleteExpiredSessions(ctx, p.now())
	if err != nil {
		return 0, p.unavailable("expire sessions", err)
	}
	for _, record := range expired {
		p.emit(ctx, application.SessionChange{Token: record.Token})
	}
	if len(expired) > 0 {
		p.logger.Info("sessions expired", "count", len(expired))
	}
	return len(expired), nil
}

// RegisterCredential creates or replaces the credential for email and returns its uid.
// An empty uid keeps the existing one, or mints a new one for a new email.
func (p *Provider) RegisterCredential(ctx context.Context, email, password, uid string) (string, error) {
	normalized := application.NormalizeEmail(email)
	if normalized == "" {
		return "", fmt.Errorf("identity: email is required")
	}
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("identity: password must be at least %d characters", MinPasswordLength)
	}

	if uid == "" {
		existing, err := p.store.GetCredential(ctx, normalized)
		switch {
		case err == nil:
			uid = existing.UID
		case errors.Is(err, persistence.ErrNotFound):
			uid = p.newID()
		default:
			return "", p.unavailable("get credential", err)
		}
	}

	hash, err := HashPassword(password, p.params)
	if err != nil {
		return "", err
	}
	if err := p.store.PutCredential(ctx, persistence.Credential{UID: uid, Email: normalized, PasswordHash: hash}); err != nil {
		return "", p.unavailable("put credential", err)
	}
	p.logger.Info("credential registered", "uid", uid)
	return uid, nil
}

// OnSessionChange registers fn. It first receives one event per live session, then a
// null event with an empty token marking the end of the replay.
func (p *Provider) OnSessionChange(ctx context.Context, fn func(context.Context, application.SessionChange)) (application.Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("identity: listener is required")
	}
	records, err := p.store.ListSessions(ctx)
	if err != nil {
		return nil, p.unavailable("list sessions", err)
	}

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	p.mu.Unlock()

	now := p.now()
	for _, record := range records {
		if !now.Before(record.ExpiresAt) {
			continue
		}
		identity := application.Identity{UID: record.UID, Email: record.Email}
		fn(ctx, application.SessionChange{Token: record.Token, Identity: &identity, ExpiresAt: record.ExpiresAt})
	}
	fn(ctx, application.SessionChange{})

	return &subscription{provider: p, id: id}, nil
}

func (p *Provider) emit(ctx context.Context, change application.SessionChange) {
	p.mu.Lock()
	snapshot := make([]listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		snapshot = append(snapshot, fn)
	}
	p.mu.Unlock()

	for _, fn := range snapshot {
		fn(ctx, change)
	}
}

func (p *Provider) unavailable(operation string, err error) error {
	p.logger.Error("identity backend failed", "operation", operation, "error", err)
	return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, operation, err)
}

type subscription struct {
	provider *Provider
	id       uint64
	once     sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.provider.mu.Lock()
		delete(s.provider.listeners, s.id)
		s.provider.mu.Unlock()
	})
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func toRecord(s Session) persistence.Session {
	return persistence.Session{ID: s.ID, Token: s.Token, UID: s.UID, Email: s.Email, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt}
}

func fromRecord(r persistence.Session) Session {
	return Session{ID: r.ID, Token: r.Token, UID: r.UID, Email: r.Email, CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt}
}
