package models

import (
	"fmt"
	"strings"
)

// RosterEntry is a person known to a project. Email is the cross-system
// identity key: the display name and every alias are alternative surface
// forms pointing at the same email. Entries are built fresh on each roster
// load and never mutated by the resolver.
type RosterEntry struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Handle  *string  `json:"handle,omitempty"`
	Role    *string  `json:"role,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

// NewRosterEntry validates and constructs a roster entry. Name and email are
// required; blank aliases are dropped.
func NewRosterEntry(name, email string, aliases []string) (*RosterEntry, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, fmt.Errorf("roster entry requires a display name")
	}
	if email == "" {
		return nil, fmt.Errorf("roster entry %q requires an email", name)
	}

	entry := &RosterEntry{
		Name:  name,
		Email: strings.ToLower(email),
	}
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias != "" {
			entry.Aliases = append(entry.Aliases, alias)
		}
	}
	return entry, nil
}

// SurfaceForms returns the display name plus all aliases.
func (e *RosterEntry) SurfaceForms() []string {
	forms := make([]string, 0, len(e.Aliases)+1)
	forms = append(forms, e.Name)
	forms = append(forms, e.Aliases...)
	return forms
}

// FindByEmail returns the entry with the given email, or nil.
func FindByEmail(roster []*RosterEntry, email string) *RosterEntry {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, entry := range roster {
		if entry.Email == email {
			return entry
		}
	}
	return nil
}
