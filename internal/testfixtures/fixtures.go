package testfixtures

import (
	"time"

	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime is the baseline instant used by fixtures and clocks.
func ReferenceTime() time.Time {
	return referenceTime
}

// DeveloperFixture is a deterministic developer that can be materialised for any layer.
type DeveloperFixture struct {
	Name       string
	EmployeeID string
	Email      string
	Location   string
	Role       string
	Project    string
	Active     bool
	Skills     []application.Skill
}

// DeveloperOption customises a DeveloperFixture.
type DeveloperOption func(*DeveloperFixture)

// NewDeveloperFixture defaults to the John Doe record used across the test suites.
func NewDeveloperFixture(opts ...DeveloperOption) DeveloperFixture {
	fixture := DeveloperFixture{
		Name:   "John Doe",
		Email:  "john.doe@test.com",
		Role:   "Frontend Developer",
		Active: true,
		Skills: []application.Skill{{Name: "React", Proficiency: 4}},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithDeveloperName(name string) DeveloperOption {
	return func(f *DeveloperFixture) { f.Name = name }
}

func WithDeveloperEmail(email string) DeveloperOption {
	return func(f *DeveloperFixture) { f.Email = email }
}

func WithDeveloperRole(role string) DeveloperOption {
	return func(f *DeveloperFixture) { f.Role = role }
}

func WithDeveloperProject(project string) DeveloperOption {
	return func(f *DeveloperFixture) { f.Project = project }
}

func WithDeveloperSkills(skills ...application.Skill) DeveloperOption {
	return func(f *DeveloperFixture) { f.Skills = skills }
}

func WithDeveloperInactive() DeveloperOption {
	return func(f *DeveloperFixture) { f.Active = false }
}

// Input is the fixture as a directory create request.
func (f DeveloperFixture) Input() application.DeveloperInput {
	return application.DeveloperInput{
		Name:       f.Name,
		EmployeeID: f.EmployeeID,
		Email:      f.Email,
		Location:   f.Location,
		Role:       f.Role,
		Project:    f.Project,
		Active:     f.Active,
		Skills:     append([]application.Skill(nil), f.Skills...),
	}
}

// Form is the fixture typed into a registration form with the given id.
func (f DeveloperFixture) Form(id string) *application.RegistrationForm {
	form := application.NewRegistrationForm(id)
	form.Name = f.Name
	form.EmployeeID = f.EmployeeID
	form.Email = f.Email
	form.Location = f.Location
	form.Role = f.Role
	form.Project = f.Project
	form.Active = f.Active
	for _, skill := range f.Skills {
		form.AddSkill(skill.Name, skill.Proficiency)
	}
	return form
}

// Application is the record the directory stores for this fixture.
func (f DeveloperFixture) Application() application.Developer {
	email := application.NormalizeEmail(f.Email)
	return application.Developer{
		ID:         email,
		Name:       f.Name,
		EmployeeID: f.EmployeeID,
		Email:      email,
		Location:   f.Location,
		Role:       f.Role,
		Project:    f.Project,
		Active:     f.Active,
		Skills:     append([]application.Skill(nil), f.Skills...),
	}
}

// Persistence is the stored document shape of this fixture.
func (f DeveloperFixture) Persistence() persistence.Developer {
	developer := f.Application()
	skills := make([]persistence.Skill, 0, len(developer.Skills))
	for _, skill := range developer.Skills {
		skills = append(skills, persistence.Skill{Name: skill.Name, Proficiency: skill.Proficiency})
	}
	return persistence.Developer{
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
