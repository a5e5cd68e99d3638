package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// RegistrationForm is a single in-progress registration attempt. ID identifies the form
// instance so concurrent submits of the same form can be refused.
type RegistrationForm struct {
	ID         string
	Name       string
	EmployeeID string
	Email      string
	Location   string
	Role       string
	Project    string
	Active     bool
	Skills     []Skill
}

// NewRegistrationForm returns a form in its initial state.
func NewRegistrationForm(id string) *RegistrationForm {
	return &RegistrationForm{ID: id, Active: true}
}

// AddSkill appends a skill unless the name is blank, the proficiency is out of range, or a
// skill with the same name is already present. It reports whether the list changed.
func (f *RegistrationForm) AddSkill(name string, proficiency int) bool {
	name = strings.TrimSpace(name)
	if name == "" || proficiency < MinProficiency || proficiency > MaxProficiency {
		return false
	}
	for _, skill := range f.Skills {
		if skill.Name == name {
			return false
		}
	}
	f.Skills = append(f.Skills, Skill{Name: name, Proficiency: proficiency})
	return true
}

// RemoveSkill drops the skill with exactly the given name. It reports whether the list changed.
func (f *RegistrationForm) RemoveSkill(name string) bool {
	kept := f.Skills[:0:0]
	for _, skill := range f.Skills {
		if skill.Name != name {
			kept = append(kept, skill)
		}
	}
	if len(kept) == len(f.Skills) {
		return false
	}
	f.Skills = kept
	return true
}

// Reset restores every field to its initial value. The form id is kept.
func (f *RegistrationForm) Reset() {
	*f = RegistrationForm{ID: f.ID, Active: true}
}

// Validate checks the fields required before anything is sent to the store.
func (f *RegistrationForm) Validate() error {
	vErr := &ValidationError{}
	if f.Name == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(f.Email) == "" {
		vErr.add("email", "email is required")
	}
	for _, skill := range f.Skills {
		if skill.Proficiency < MinProficiency || skill.Proficiency > MaxProficiency {
			vErr.add("skills", fmt.Sprintf("proficiency for %s must be between %d and %d", skill.Name, MinProficiency, MaxProficiency))
			break
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func (f *RegistrationForm) input() DeveloperInput {
	return DeveloperInput{
		Name:       f.Name,
		EmployeeID: f.EmployeeID,
		Email:      f.Email,
		Location:   f.Location,
		Role:       f.Role,
		Project:    f.Project,
		Active:     f.Active,
		Skills:     cloneSkills(f.Skills),
	}
}

// RegistrationState is a step of the registration state machine.
type RegistrationState string

const (
	StateIdle               RegistrationState = "idle"
	StateValidating         RegistrationState = "validating"
	StateCheckingUniqueness RegistrationState = "checking_uniqueness"
	StateWriting            RegistrationState = "writing"
	StateSucceeded          RegistrationState = "succeeded"
	StateFailed             RegistrationState = "failed"
)

// Registration outcomes reported to metrics.
const (
	OutcomeCreated    = "created"
	OutcomeInvalid    = "invalid"
	OutcomeDuplicate  = "duplicate"
	OutcomeFailed     = "failed"
	OutcomeInProgress = "in_progress"
)

// RegistrationResult is the terminal state of a submit and the message to show the user.
type RegistrationResult struct {
	State     RegistrationState
	Message   string
	Err       error
	Developer Developer
}

// DeveloperDirectory is the part of the directory service the workflow writes through.
type DeveloperDirectory interface {
	DeveloperExists(ctx context.Context, email string) (bool, error)
	CreateDeveloper(ctx context.Context, input DeveloperInput) (Developer, error)
	CreateDeveloperIfAbsent(ctx context.Context, input DeveloperInput) (Developer, error)
}

// DeveloperCreatedEvent is published after a developer record is written.
type DeveloperCreatedEvent struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Skills []string `json:"skills"`
}

// RegistrationWorkflow drives Idle → Validating → CheckingUniqueness → Writing →
// Succeeded|Failed → Idle for one form submit.
//
// By default the existence check and the write are two independent store calls, so two
// concurrent submits of the same new email from different forms can both pass the check
// and the second write overwrites the first. With atomic create enabled the check is folded
// into a single create-if-absent write and the second submit fails as a duplicate.
type RegistrationWorkflow struct {
	directory    DeveloperDirectory
	atomicCreate bool
	opts         serviceOptions
	observer     func(form string, state RegistrationState)

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// WorkflowOption configures a RegistrationWorkflow.
type WorkflowOption func(*RegistrationWorkflow)

// WithAtomicCreate switches the uniqueness check to a single create-if-absent write.
func WithAtomicCreate(enabled bool) WorkflowOption {
	return func(w *RegistrationWorkflow) {
		w.atomicCreate = enabled
	}
}

// WithTransitionObserver registers a callback invoked on every state change.
func WithTransitionObserver(observer func(form string, state RegistrationState)) WorkflowOption {
	return func(w *RegistrationWorkflow) {
		w.observer = observer
	}
}

// WithServiceOptions applies the shared service options to the workflow.
func WithServiceOptions(opts ...Option) WorkflowOption {
	return func(w *RegistrationWorkflow) {
		w.opts = newServiceOptions(opts)
	}
}

// NewRegistrationWorkflow wires the workflow against the developer directory.
func NewRegistrationWorkflow(directory DeveloperDirectory, opts ...WorkflowOption) *RegistrationWorkflow {
	w := &RegistrationWorkflow{
		directory: directory,
		opts:      newServiceOptions(nil),
		inFlight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Submitting reports whether a submit for the form id is currently running.
func (w *RegistrationWorkflow) Submitting(formID string) bool {
	if formID == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.inFlight[formID]
	return ok
}

func (w *RegistrationWorkflow) acquire(formID string) bool {
	if formID == "" {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inFlight[formID]; ok {
		return false
	}
	w.inFlight[formID] = struct{}{}
	return true
}

func (w *RegistrationWorkflow) release(formID string) {
	if formID == "" {
		return
	}
	w.mu.Lock()
	delete(w.inFlight, formID)
	w.mu.Unlock()
}

func (w *RegistrationWorkflow) transition(formID string, state RegistrationState) {
	if w.observer != nil {
		w.observer(formID, state)
	}
}

// Submit runs the form through the state machine. On success the form is reset; on any
// failure the form data is left as submitted.
func (w *RegistrationWorkflow) Submit(ctx context.Context, form *RegistrationForm) (result RegistrationResult) {
	if w == nil || w.directory == nil || form == nil {
		return RegistrationResult{State: StateFailed, Message: MessageCreateFailed, Err: fmt.Errorf("registration workflow not configured")}
	}

	logger := serviceLogger(ctx, w.opts.logger, "RegistrationWorkflow", "Submit", "form_id", form.ID)

	if !w.acquire(form.ID) {
		w.opts.metrics.RegistrationOutcome(OutcomeInProgress)
		logger.WarnContext(ctx, "submit ignored while previous submit is running", "error_kind", ErrorKind(ErrSubmissionInProgress))
		return RegistrationResult{State: StateFailed, Message: MessageSubmitInProgress, Err: ErrSubmissionInProgress}
	}
	defer func() {
		w.release(form.ID)
		w.transition(form.ID, StateIdle)
	}()

	w.transition(form.ID, StateValidating)
	if err := form.Validate(); err != nil {
		w.opts.metrics.RegistrationOutcome(OutcomeInvalid)
		logger.InfoContext(ctx, "registration rejected by validation", "error_kind", ErrorKind(err))
		return RegistrationResult{State: StateIdle, Message: MessageRequiredFields, Err: err}
	}

	input := form.input()
	logger = logger.With("email", NormalizeEmail(input.Email))

	var (
		developer Developer
		err       error
	)
	if w.atomicCreate {
		w.transition(form.ID, StateWriting)
		developer, err = w.directory.CreateDeveloperIfAbsent(ctx, input)
	} else {
		w.transition(form.ID, StateCheckingUniqueness)
		var exists bool
		exists, err = w.directory.DeveloperExists(ctx, input.Email)
		if err == nil && exists {
			err = ErrDuplicateEmail
		}
		if err == nil {
			w.transition(form.ID, StateWriting)
			developer, err = w.directory.CreateDeveloper(ctx, input)
		}
	}

	if err != nil {
		w.transition(form.ID, StateFailed)
		if errors.Is(err, ErrDuplicateEmail) {
			w.opts.metrics.RegistrationOutcome(OutcomeDuplicate)
			logger.InfoContext(ctx, "registration rejected: email already registered", "error_kind", ErrorKind(err))
			return RegistrationResult{State: StateFailed, Message: MessageDuplicateEmail, Err: err}
		}
		w.opts.metrics.RegistrationOutcome(OutcomeFailed)
		logger.ErrorContext(ctx, "error creating developer", "error", err, "error_kind", ErrorKind(err))
		return RegistrationResult{State: StateFailed, Message: MessageCreateFailed, Err: err}
	}

	w.transition(form.ID, StateSucceeded)
	w.opts.metrics.RegistrationOutcome(OutcomeCreated)
	logger.InfoContext(ctx, "developer registered", "developer_id", developer.ID)
	w.publishCreated(ctx, logger, developer)
	form.Reset()

	return RegistrationResult{
		State:     StateSucceeded,
		Message:   fmt.Sprintf("Developer \"%s\" created successfully.", developer.Name),
		Developer: developer,
	}
}

func (w *RegistrationWorkflow) publishCreated(ctx context.Context, logger *slog.Logger, developer Developer) {
	event := DeveloperCreatedEvent{
		ID:     developer.ID,
		Name:   developer.Name,
		Email:  developer.Email,
		Skills: developer.SkillNames(),
	}
	if err := w.opts.events.Publish(ctx, SubjectDeveloperCreated, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish developer.created", "error", err)
	}
}
