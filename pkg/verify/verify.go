// Package verify defines secondary-source identity verifiers. A verifier
// answers whether an independent system (chat directory, calendar) knows the
// candidate email, providing corroborating evidence beyond the roster.
// Verifiers are optional and pluggable; their failures are never fatal to
// resolution.
package verify

import "context"

// MembershipVerifier checks whether an email belongs to the project's chat
// directory or workspace.
type MembershipVerifier interface {
	VerifyMembership(ctx context.Context, email string) (bool, error)
}

// AttendanceVerifier checks whether an email was an attendee of a calendar
// event.
type AttendanceVerifier interface {
	VerifyAttendance(ctx context.Context, calendarID, eventID, email string) (bool, error)
}
