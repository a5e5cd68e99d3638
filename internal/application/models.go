package application

import "time"

// Identity is the authenticated principal reported by the identity provider.
type Identity struct {
	UID   string
	Email string
}

// SessionChange is a single event from the identity provider's session stream.
// A nil Identity means the session identified by Token ended or no session exists.
// ExpiresAt is zero when the session does not expire.
type SessionChange struct {
	Token     string
	Identity  *Identity
	ExpiresAt time.Time
}

// Skill is a named proficiency embedded in a developer record.
type Skill struct {
	Name        string
	Proficiency int
}

// Proficiency bounds accepted by the skill picker, and the level it preselects.
const (
	MinProficiency     = 1
	MaxProficiency     = 5
	DefaultProficiency = 3
)

// Developer represents a roster entry. ID always equals the normalized email.
type Developer struct {
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

// SkillNames returns the skill names in display order.
func (d Developer) SkillNames() []string {
	if len(d.Skills) == 0 {
		return nil
	}
	names := make([]string, 0, len(d.Skills))
	for _, skill := range d.Skills {
		names = append(names, skill.Name)
	}
	return names
}

// DeveloperInput captures the caller provided fields of a developer before an id is assigned.
type DeveloperInput struct {
	Name       string
	EmployeeID string
	Email      string
	Location   string
	Role       string
	Project    string
	Active     bool
	Skills     []Skill
}

func cloneSkills(skills []Skill) []Skill {
	if skills == nil {
		return nil
	}
	out := make([]Skill, len(skills))
	copy(out, skills)
	return out
}
