package application

import (
	"context"
	"sort"
	"sync"
)

type fakeDeveloperRepo struct {
	mu         sync.Mutex
	developers map[string]Developer
	listErr    error
	getErr     error
	putErr     error
	putCalls   int
	insertErr  error
	insertCall int
}

func newFakeDeveloperRepo() *fakeDeveloperRepo {
	return &fakeDeveloperRepo{developers: make(map[string]Developer)}
}

func (r *fakeDeveloperRepo) ListDevelopers(context.Context) ([]Developer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Developer, 0, len(r.developers))
	for _, developer := range r.developers {
		out = append(out, developer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDeveloperRepo) GetDeveloper(_ context.Context, id string) (Developer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return Developer{}, r.getErr
	}
	developer, ok := r.developers[id]
	if !ok {
		return Developer{}, ErrNotFound
	}
	return developer, nil
}

func (r *fakeDeveloperRepo) PutDeveloper(_ context.Context, developer Developer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putCalls++
	if r.putErr != nil {
		return r.putErr
	}
	r.developers[developer.ID] = developer
	return nil
}

func (r *fakeDeveloperRepo) InsertDeveloper(_ context.Context, developer Developer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCall++
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.developers[developer.ID]; ok {
		return ErrAlreadyExists
	}
	r.developers[developer.ID] = developer
	return nil
}

func (r *fakeDeveloperRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.putCalls + r.insertCall
}

type recordingMetrics struct {
	mu            sync.Mutex
	gate          []string
	registrations []string
	storeErrors   []string
}

func (m *recordingMetrics) GateDecision(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = append(m.gate, outcome)
}

func (m *recordingMetrics) RegistrationOutcome(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, outcome)
}

func (m *recordingMetrics) StoreError(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeErrors = append(m.storeErrors, operation)
}

type publishedEvent struct {
	subject string
	payload any
}

type recordingEvents struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (e *recordingEvents) Publish(_ context.Context, subject string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, publishedEvent{subject: subject, payload: payload})
	return e.err
}

type fakeSubscription struct {
	stream *fakeSessionStream
	id     int
}

func (s *fakeSubscription) Unsubscribe() {
	s.stream.mu.Lock()
	defer s.stream.mu.Unlock()
	delete(s.stream.listeners, s.id)
}

// fakeSessionStream mimics the identity provider: sign-out emits a null event for the token.
type fakeSessionStream struct {
	mu         sync.Mutex
	nextID     int
	listeners  map[int]func(context.Context, SessionChange)
	signedOut  []string
	subscribes int
	replay     []SessionChange
}

func newFakeSessionStream() *fakeSessionStream {
	return &fakeSessionStream{listeners: make(map[int]func(context.Context, SessionChange))}
}

func (s *fakeSessionStream) OnSessionChange(ctx context.Context, listener func(context.Context, SessionChange)) (Subscription, error) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = listener
	s.subscribes++
	replay := append([]SessionChange(nil), s.replay...)
	s.mu.Unlock()

	for _, change := range replay {
		listener(ctx, change)
	}
	listener(ctx, SessionChange{})
	return &fakeSubscription{stream: s, id: id}, nil
}

func (s *fakeSessionStream) SignOut(ctx context.Context, token string) error {
	s.mu.Lock()
	s.signedOut = append(s.signedOut, token)
	s.mu.Unlock()
	s.emit(ctx, SessionChange{Token: token})
	return nil
}

func (s *fakeSessionStream) emit(ctx context.Context, change SessionChange) {
	s.mu.Lock()
	listeners := make([]func(context.Context, SessionChange), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(ctx, change)
	}
}

func (s *fakeSessionStream) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *fakeSessionStream) signOuts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signedOut...)
}
