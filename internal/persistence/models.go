package persistence

import (
	"encoding/json"
	"time"
)

// Document is a single record of a collection. Data holds the JSON encoded body.
type Document struct {
	Collection string
	Key        string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Developer is the stored shape of a roster entry in the devs collection.
type Developer struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	EmployeeID string  `json:"employeeId"`
	Email      string  `json:"email"`
	Location   string  `json:"location"`
	Role       string  `json:"role"`
	Project    string  `json:"project"`
	Active     bool    `json:"active"`
	Skills     []Skill `json:"skills"`
}

// Skill is embedded in Developer.
type Skill struct {
	Name        string `json:"name"`
	Proficiency int    `json:"proficiency"`
}

// Credential is an identity provider account.
type Credential struct {
	UID          string
	Email        string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a live identity provider session.
type Session struct {
	ID        string
	Token     string
	UID       string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
