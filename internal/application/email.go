package application

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address. The result is
// used both as comparison key and as the developer record key.
func NormalizeEmail(email string) string {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return ""
	}
	// Casers keep internal state, so each call gets its own.
	return cases.Lower(language.Und).String(trimmed)
}

// AllowList is an immutable set of administrator emails.
type AllowList struct {
	emails map[string]struct{}
	order  []string
}

// NewAllowList normalizes and de-duplicates the provided emails. Blank entries are ignored.
func NewAllowList(emails []string) AllowList {
	list := AllowList{emails: make(map[string]struct{}, len(emails))}
	for _, email := range emails {
		normalized := NormalizeEmail(email)
		if normalized == "" {
			continue
		}
		if _, ok := list.emails[normalized]; ok {
			continue
		}
		list.emails[normalized] = struct{}{}
		list.order = append(list.order, normalized)
	}
	return list
}

// Contains reports whether email, compared case-insensitively, is on the list.
func (a AllowList) Contains(email string) bool {
	if len(a.emails) == 0 {
		return false
	}
	_, ok := a.emails[NormalizeEmail(email)]
	return ok
}

// Len returns the number of distinct administrator emails.
func (a AllowList) Len() int {
	return len(a.order)
}

// Emails returns the normalized entries in configuration order.
func (a AllowList) Emails() []string {
	return append([]string(nil), a.order...)
}
