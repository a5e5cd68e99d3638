package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Subscription is a cancellable registration on a session stream.
type Subscription interface {
	Unsubscribe()
}

// SessionStream is the slice of the identity provider the gate depends on.
type SessionStream interface {
	OnSessionChange(ctx context.Context, listener func(context.Context, SessionChange)) (Subscription, error)
	SignOut(ctx context.Context, token string) error
}

// Gate decision outcomes reported to metrics.
const (
	GateAuthorized = "authorized"
	GateDenied     = "denied"
	GateSignedOut  = "signed_out"
)

// deniedRetention bounds how long a refusal message waits for the login screen.
const deniedRetention = 15 * time.Minute

// GateDeniedEvent is published whenever an identity is signed out for not being an administrator.
type GateDeniedEvent struct {
	Email string `json:"email"`
	UID   string `json:"uid"`
}

// IdentityGate turns session-change events into authorization decisions. It is the only
// component that terminates sessions.
//
// State is tracked per session token: an authorized identity, or a pending error message
// for a session that was refused. Authorized sessions past their expiry are refused even
// before the provider's sweep removes them.
type IdentityGate struct {
	stream    SessionStream
	allowList func() AllowList
	opts      serviceOptions

	mu         sync.RWMutex
	loading    bool
	sub        Subscription
	authorized map[string]gateSession
	denied     map[string]deniedSession
}

type gateSession struct {
	identity  Identity
	expiresAt time.Time
}

func (s gateSession) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

type deniedSession struct {
	message  string
	deniedAt time.Time
}

// NewIdentityGate constructs a gate. allowList is consulted on every event so a reloaded
// snapshot takes effect without restarting.
func NewIdentityGate(stream SessionStream, allowList func() AllowList, opts ...Option) *IdentityGate {
	if allowList == nil {
		allowList = func() AllowList { return AllowList{} }
	}
	return &IdentityGate{
		stream:     stream,
		allowList:  allowList,
		opts:       newServiceOptions(opts),
		loading:    true,
		authorized: make(map[string]gateSession),
		denied:     make(map[string]deniedSession),
	}
}

func (g *IdentityGate) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, g.opts.logger, "IdentityGate", operation, attrs...)
}

// Start subscribes to the session stream. Calling Start again is a no-op while subscribed.
func (g *IdentityGate) Start(ctx context.Context) error {
	if g == nil || g.stream == nil {
		return fmt.Errorf("identity gate not configured")
	}
	g.mu.RLock()
	subscribed := g.sub != nil
	g.mu.RUnlock()
	if subscribed {
		return nil
	}

	// The stream may replay events synchronously, so no lock is held here.
	sub, err := g.stream.OnSessionChange(ctx, g.handle)
	if err != nil {
		g.loggerWith(ctx, "Start").ErrorContext(ctx, "failed to subscribe to session stream", "error", err)
		return err
	}

	g.mu.Lock()
	g.sub = sub
	g.mu.Unlock()
	return nil
}

// Stop unsubscribes from the session stream.
func (g *IdentityGate) Stop() {
	if g == nil {
		return
	}
	g.mu.Lock()
	sub := g.sub
	g.sub = nil
	g.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Loading reports whether no session event has been observed yet.
func (g *IdentityGate) Loading() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loading
}

// Authorized returns the administrator identity bound to token, if any. An expired
// session is never authorized.
func (g *IdentityGate) Authorized(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	session, ok := g.authorized[token]
	if !ok || session.expired(g.opts.now()) {
		return Identity{}, false
	}
	return session.identity, true
}

// TakeError returns and clears the pending authorization error recorded for token.
func (g *IdentityGate) TakeError(token string) string {
	if token == "" {
		return ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneDeniedLocked(g.opts.now())
	denial := g.denied[token]
	delete(g.denied, token)
	return denial.message
}

// pendingErrors reports how many refusal messages are waiting to be taken.
func (g *IdentityGate) pendingErrors() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneDeniedLocked(g.opts.now())
	return len(g.denied)
}

func (g *IdentityGate) pruneDeniedLocked(now time.Time) {
	for token, denial := range g.denied {
		if now.Sub(denial.deniedAt) >= deniedRetention {
			delete(g.denied, token)
		}
	}
}

// Revalidate re-applies the current allow-list to every authorized session and signs out
// those no longer allowed. It returns the number of sessions refused.
func (g *IdentityGate) Revalidate(ctx context.Context) int {
	g.mu.RLock()
	sessions := make(map[string]Identity, len(g.authorized))
	for token, session := range g.authorized {
		sessions[token] = session.identity
	}
	g.mu.RUnlock()

	allow := g.allowList()
	refused := 0
	for token, identity := range sessions {
		if allow.Contains(identity.Email) {
			continue
		}
		identity := identity
		g.deny(ctx, token, &identity)
		refused++
	}
	return refused
}

func (g *IdentityGate) handle(ctx context.Context, change SessionChange) {
	if change.Identity == nil {
		// Also the follow-up of our own sign-out: only the active user and the loading flag change.
		g.mu.Lock()
		if change.Token != "" {
			delete(g.authorized, change.Token)
		}
		g.loading = false
		g.mu.Unlock()
		if change.Token != "" {
			g.opts.metrics.GateDecision(GateSignedOut)
		}
		return
	}

	if g.allowList().Contains(change.Identity.Email) {
		g.mu.Lock()
		g.authorized[change.Token] = gateSession{identity: *change.Identity, expiresAt: change.ExpiresAt}
		delete(g.denied, change.Token)
		g.loading = false
		g.mu.Unlock()
		g.opts.metrics.GateDecision(GateAuthorized)
		g.loggerWith(ctx, "handle", "uid", change.Identity.UID).InfoContext(ctx, "administrator session authorized")
		return
	}

	g.deny(ctx, change.Token, change.Identity)
}

func (g *IdentityGate) deny(ctx context.Context, token string, identity *Identity) {
	logger := g.loggerWith(ctx, "deny", "uid", identity.UID, "email", NormalizeEmail(identity.Email))

	if err := g.stream.SignOut(ctx, token); err != nil {
		logger.ErrorContext(ctx, "failed to sign out unauthorized session", "error", err)
	}

	now := g.opts.now()
	g.mu.Lock()
	delete(g.authorized, token)
	g.pruneDeniedLocked(now)
	if token != "" {
		g.denied[token] = deniedSession{message: MessageUnauthorized, deniedAt: now}
	}
	g.loading = false
	g.mu.Unlock()

	g.opts.metrics.GateDecision(GateDenied)
	logger.WarnContext(ctx, "unauthorized identity signed out", "error_kind", ErrorKind(ErrUnauthorized))

	if err := g.opts.events.Publish(ctx, SubjectGateDenied, GateDeniedEvent{Email: NormalizeEmail(identity.Email), UID: identity.UID}); err != nil {
		logger.ErrorContext(ctx, "failed to publish gate denial", "error", err)
	}
}
