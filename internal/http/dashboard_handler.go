package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/johanWP/DevSkillTracker/internal/application"
)

type developerLister interface {
	ListDevelopers(ctx context.Context) ([]application.Developer, error)
}

type catalogReader interface {
	GetCatalog(ctx context.Context) []string
}

type registrationWorkflow interface {
	Submit(ctx context.Context, form *application.RegistrationForm) application.RegistrationResult
	Submitting(formID string) bool
}

// DashboardHandler renders the signed-in views and handles the registration form.
// Every view fetches its data on each request; nothing is cached between requests.
type DashboardHandler struct {
	directory developerLister
	catalog   catalogReader
	workflow  registrationWorkflow
	newFormID func() string
	pages     *renderer
	logger    *slog.Logger
}

func NewDashboardHandler(directory developerLister, catalog catalogReader, workflow registrationWorkflow, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{
		directory: directory,
		catalog:   catalog,
		workflow:  workflow,
		newFormID: uuid.NewString,
		pages:     mustRenderer(base),
		logger:    base,
	}
}

func (h *DashboardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "DashboardHandler", operation, attrs...)
}

type dashboardPage struct {
	Email      string
	View       View
	Developers []application.Developer
	Catalog    []string
	Form       *application.RegistrationForm
	Error      string
	Notice     string
	// Submitting disables Save while a save of the same form instance is running.
	Submitting bool
}

func (h *DashboardHandler) page(ctx context.Context, view View) dashboardPage {
	identity, _ := IdentityFromContext(ctx)
	return dashboardPage{Email: identity.Email, View: view}
}

// Show renders the view selected by the view query parameter.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := h.page(ctx, ParseView(r.URL.Query().Get("view")))

	switch data.View {
	case ViewDevelopers:
		developers, err := h.directory.ListDevelopers(ctx)
		if err != nil {
			h.log(ctx, "Show", "view", data.View).ErrorContext(ctx, "error fetching developers", "error", err, "error_kind", application.ErrorKind(err))
			data.Error = application.MessageListFailed
		}
		data.Developers = developers
	case ViewAddDeveloper:
		data.Form = application.NewRegistrationForm(h.newFormID())
		data.Catalog = h.catalog.GetCatalog(ctx)
	case ViewSettings:
		data.Catalog = h.catalog.GetCatalog(ctx)
	}

	h.pages.render(w, r, http.StatusOK, pageDashboard, data)
}

// Registration form actions.
const (
	actionSave        = "save"
	actionAddSkill    = "add-skill"
	actionRemoveSkill = "remove-skill"
	actionReset       = "reset"
)

// SubmitForm applies one registration form action. The form travels with every
// request, so add and remove only re-render it; save runs the workflow.
func (h *DashboardHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := h.page(ctx, ViewAddDeveloper)

	if err := r.ParseForm(); err != nil {
		h.log(ctx, "SubmitForm", "error_kind", "bad_request").WarnContext(ctx, "failed to parse registration form", "error", err)
		data.Form = application.NewRegistrationForm(h.newFormID())
		data.Catalog = h.catalog.GetCatalog(ctx)
		data.Error = statusMessage(http.StatusBadRequest)
		h.pages.render(w, r, http.StatusBadRequest, pageDashboard, data)
		return
	}

	form := formFromRequest(r)
	if form.ID == "" {
		form.ID = h.newFormID()
	}
	status := http.StatusOK

	switch formAction(r) {
	case actionAddSkill:
		proficiency, _ := strconv.Atoi(r.PostFormValue("new_proficiency"))
		form.AddSkill(r.PostFormValue("new_skill"), proficiency)
	case actionRemoveSkill:
		form.RemoveSkill(r.PostFormValue("remove_skill"))
	case actionReset:
		form.Reset()
	default:
		result := h.workflow.Submit(ctx, form)
		if result.State == application.StateSucceeded {
			data.Notice = result.Message
			status = http.StatusCreated
		} else {
			data.Error = result.Message
			status, _, _ = classifyError(result.Err)
		}
	}

	data.Form = form
	data.Submitting = h.workflow.Submitting(form.ID)
	data.Catalog = h.catalog.GetCatalog(ctx)
	h.pages.render(w, r, status, pageDashboard, data)
}

func formAction(r *http.Request) string {
	if r.PostForm.Has("remove_skill") {
		return actionRemoveSkill
	}
	switch action := r.PostFormValue("action"); action {
	case actionAddSkill, actionReset, actionSave:
		return action
	default:
		return actionSave
	}
}

// formFromRequest rebuilds the form from posted fields. Skills come as parallel
// skill_name and skill_proficiency lists.
func formFromRequest(r *http.Request) *application.RegistrationForm {
	form := application.NewRegistrationForm(strings.TrimSpace(r.PostFormValue("form_id")))
	form.Name = r.PostFormValue("name")
	form.Email = r.PostFormValue("email")
	form.EmployeeID = r.PostFormValue("employee_id")
	form.Location = r.PostFormValue("location")
	form.Role = r.PostFormValue("role")
	form.Project = r.PostFormValue("project")
	form.Active = r.PostFormValue("active") == "true"

	names := r.PostForm["skill_name"]
	levels := r.PostForm["skill_proficiency"]
	for i, name := range names {
		if i >= len(levels) {
			break
		}
		proficiency, err := strconv.Atoi(levels[i])
		if err != nil {
			continue
		}
		form.AddSkill(name, proficiency)
	}
	return form
}
