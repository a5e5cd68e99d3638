package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/johanWP/DevSkillTracker/internal/application"
)

// APIHandler serves the JSON API behind the same administrator gate as the pages.
type APIHandler struct {
	directory developerLister
	catalog   catalogReader
	workflow  registrationWorkflow
	responder responder
	logger    *slog.Logger
}

func NewAPIHandler(directory developerLister, catalog catalogReader, workflow registrationWorkflow, logger *slog.Logger) *APIHandler {
	base := defaultLogger(logger)
	return &APIHandler{
		directory: directory,
		catalog:   catalog,
		workflow:  workflow,
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *APIHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "APIHandler", operation, attrs...)
}

// Session returns the administrator bound to the request.
func (h *APIHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{UID: identity.UID, Email: identity.Email})
}

func (h *APIHandler) ListDevelopers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	developers, err := h.directory.ListDevelopers(ctx)
	if err != nil {
		h.log(ctx, "ListDevelopers").ErrorContext(ctx, "error fetching developers", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(ctx, w, err, application.MessageListFailed)
		return
	}

	dtos := make([]developerDTO, 0, len(developers))
	for _, developer := range developers {
		dtos = append(dtos, toDeveloperDTO(developer))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, developersResponse{Developers: dtos})
}

func (h *APIHandler) CreateDeveloper(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req developerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "CreateDeveloper", "error_kind", "bad_request").WarnContext(ctx, "failed to decode developer request", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result := h.workflow.Submit(ctx, req.toForm())
	if result.State != application.StateSucceeded {
		h.responder.handleServiceError(ctx, w, result.Err, result.Message)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, createDeveloperResponse{
		Message:   result.Message,
		Developer: toDeveloperDTO(result.Developer),
	})
}

func (h *APIHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, skillsResponse{Skills: h.catalog.GetCatalog(r.Context())})
}

type sessionResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type skillDTO struct {
	Name        string `json:"name"`
	Proficiency int    `json:"proficiency"`
}

type developerDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	EmployeeID string     `json:"employeeId"`
	Email      string     `json:"email"`
	Location   string     `json:"location"`
	Role       string     `json:"role"`
	Project    string     `json:"project"`
	Active     bool       `json:"active"`
	Skills     []skillDTO `json:"skills"`
}

type developersResponse struct {
	Developers []developerDTO `json:"developers"`
}

type createDeveloperResponse struct {
	Message   string       `json:"message"`
	Developer developerDTO `json:"developer"`
}

type skillsResponse struct {
	Skills []string `json:"skills"`
}

// developerRequest mirrors the registration form. FormID lets a client retry safely;
// without one every request is its own form instance.
type developerRequest struct {
	FormID     string     `json:"formId"`
	Name       string     `json:"name"`
	EmployeeID string     `json:"employeeId"`
	Email      string     `json:"email"`
	Location   string     `json:"location"`
	Role       string     `json:"role"`
	Project    string     `json:"project"`
	Active     *bool      `json:"active"`
	Skills     []skillDTO `json:"skills"`
}

func (req developerRequest) toForm() *application.RegistrationForm {
	id := req.FormID
	if id == "" {
		id = uuid.NewString()
	}
	form := application.NewRegistrationForm(id)
	form.Name = req.Name
	form.EmployeeID = req.EmployeeID
	form.Email = req.Email
	form.Location = req.Location
	form.Role = req.Role
	form.Project = req.Project
	if req.Active != nil {
		form.Active = *req.Active
	}
	for _, skill := range req.Skills {
		if skill.Proficiency < application.MinProficiency || skill.Proficiency > application.MaxProficiency {
			// Kept so validation reports it instead of silently dropping it.
			form.Skills = append(form.Skills, application.Skill{Name: skill.Name, Proficiency: skill.Proficiency})
			continue
		}
		form.AddSkill(skill.Name, skill.Proficiency)
	}
	return form
}

func toDeveloperDTO(developer application.Developer) developerDTO {
	skills := make([]skillDTO, 0, len(developer.Skills))
	for _, skill := range developer.Skills {
		skills = append(skills, skillDTO{Name: skill.Name, Proficiency: skill.Proficiency})
	}
	return developerDTO{
		ID:         developer.ID,
		Name:       developer.Name,
		EmployeeID: developer.EmployeeID,
		Email:      developer.Email,
		Location:   developer.Location,
		Role:       developer.Role,
		Project:    developer.Project,
		Active:     developer.Active,
		Skills:     skills,
	}
}
