package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johanWP/DevSkillTracker/internal/adapters/store"
	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/identity"
	"github.com/johanWP/DevSkillTracker/internal/persistence"
	"github.com/johanWP/DevSkillTracker/internal/persistence/memory"
)

// DefaultPassword is the password given to credentials created through the stack.
const DefaultPassword = "correct-horse-battery"

// FastPasswordParams keeps argon2id cheap enough for unit tests.
var FastPasswordParams = identity.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// Backend is a store that can serve both the document collections and the identity provider.
type Backend interface {
	persistence.DocumentStore
	identity.Store
}

// Stack wires the real services together on a single backend with a controllable clock.
type Stack struct {
	Clock     *Clock
	IDs       *IDGenerator
	Store     Backend
	Provider  *identity.Provider
	Gate      *application.IdentityGate
	Directory *application.DirectoryService
	Catalog   *application.CatalogReader
	Workflow  *application.RegistrationWorkflow
	Logger    *slog.Logger

	allowList atomic.Pointer[application.AllowList]
}

type stackConfig struct {
	backend      Backend
	admins       []string
	atomicCreate bool
	serviceOpts  []application.Option
	logger       *slog.Logger
}

// StackOption customises NewStack.
type StackOption func(*stackConfig)

// WithBackend replaces the default in-memory store.
func WithBackend(backend Backend) StackOption {
	return func(c *stackConfig) { c.backend = backend }
}

// WithAdmins sets the initial allow-list.
func WithAdmins(emails ...string) StackOption {
	return func(c *stackConfig) { c.admins = emails }
}

// WithAtomicCreate toggles the single-statement create path of the workflow.
func WithAtomicCreate(enabled bool) StackOption {
	return func(c *stackConfig) { c.atomicCreate = enabled }
}

// WithServiceOptions adds options, such as metrics or events, to every application service.
func WithServiceOptions(opts ...application.Option) StackOption {
	return func(c *stackConfig) { c.serviceOpts = append(c.serviceOpts, opts...) }
}

// WithStackLogger routes service logs to logger instead of discarding them.
func WithStackLogger(logger *slog.Logger) StackOption {
	return func(c *stackConfig) { c.logger = logger }
}

// NewStack builds and starts the services. The gate is stopped when the test ends.
func NewStack(t testing.TB, opts ...StackOption) *Stack {
	t.Helper()

	cfg := stackConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.backend == nil {
		cfg.backend = memory.New()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Stack{
		Clock:  NewClock(ReferenceTime()),
		IDs:    NewIDGenerator("id"),
		Store:  cfg.backend,
		Logger: cfg.logger,
	}
	s.SetAllowList(cfg.admins...)

	s.Provider = identity.NewProvider(cfg.backend,
		identity.WithClock(s.Clock.Now),
		identity.WithIDGenerator(s.IDs.Next),
		identity.WithTokenGenerator(s.IDs.Token),
		identity.WithPasswordParams(FastPasswordParams),
		identity.WithLogger(cfg.logger),
	)

	serviceOpts := append([]application.Option{
		application.WithLogger(cfg.logger),
		application.WithClock(s.Clock.Now),
	}, cfg.serviceOpts...)

	s.Gate = application.NewIdentityGate(s.Provider, s.AllowList, serviceOpts...)
	s.Directory = application.NewDirectoryService(store.NewDeveloperRepository(cfg.backend), serviceOpts...)
	s.Catalog = application.NewCatalogReader(store.NewCatalogRepository(cfg.backend), serviceOpts...)
	s.Workflow = application.NewRegistrationWorkflow(s.Directory,
		application.WithAtomicCreate(cfg.atomicCreate),
		application.WithServiceOptions(serviceOpts...),
	)

	require.NoError(t, s.Gate.Start(context.Background()))
	t.Cleanup(s.Gate.Stop)
	return s
}

// AllowList returns the current allow-list snapshot.
func (s *Stack) AllowList() application.AllowList {
	return *s.allowList.Load()
}

// SetAllowList swaps the allow-list. Call Gate.Revalidate to apply it to live sessions.
func (s *Stack) SetAllowList(emails ...string) {
	list := application.NewAllowList(emails)
	s.allowList.Store(&list)
}

// AddCredential registers an account with DefaultPassword and returns its uid.
func (s *Stack) AddCredential(t testing.TB, email string) string {
	t.Helper()
	uid, err := s.Provider.RegisterCredential(context.Background(), email, DefaultPassword, "")
	require.NoError(t, err)
	return uid
}

// SignIn creates an account when needed and signs it in, returning the session token.
func (s *Stack) SignIn(t testing.TB, email string) string {
	t.Helper()
	s.AddCredential(t, email)
	session, err := s.Provider.SignIn(context.Background(), email, DefaultPassword)
	require.NoError(t, err)
	return session.Token
}

// SeedDevelopers stores the fixtures directly, bypassing the workflow.
func (s *Stack) SeedDevelopers(t testing.TB, fixtures ...DeveloperFixture) {
	t.Helper()
	developers := persistence.NewDevelopers(s.Store)
	for _, fixture := range fixtures {
		require.NoError(t, developers.Put(context.Background(), fixture.Persistence()))
	}
}

// SeedCatalog stores the skills catalog document.
func (s *Stack) SeedCatalog(t testing.TB, skills ...string) {
	t.Helper()
	require.NoError(t, persistence.NewCatalog(s.Store).SetSkillsCatalog(context.Background(), skills))
}

// FailStore makes every subsequent store call return err. It requires the in-memory backend.
func (s *Stack) FailStore(t testing.TB, err error) {
	t.Helper()
	mem, ok := s.Store.(*memory.Store)
	require.True(t, ok, "FailStore needs the in-memory backend")
	mem.Fail(err)
}
