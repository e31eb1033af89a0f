package verify

import "context"

// MockMembershipVerifier is a configurable mock for testing membership
// checks. Set the function field to control behavior.
type MockMembershipVerifier struct {
	// VerifyMembershipFunc is called when VerifyMembership is invoked.
	// If nil, returns false and nil error.
	VerifyMembershipFunc func(ctx context.Context, email string) (bool, error)

	// Calls records the emails passed to VerifyMembership.
	Calls []string
}

// VerifyMembership implements MembershipVerifier.
func (m *MockMembershipVerifier) VerifyMembership(ctx context.Context, email string) (bool, error) {
	m.Calls = append(m.Calls, email)
	if m.VerifyMembershipFunc != nil {
		return m.VerifyMembershipFunc(ctx, email)
	}
	return false, nil
}

// MockAttendanceVerifier is a configurable mock for testing attendance
// checks.
type MockAttendanceVerifier struct {
	// VerifyAttendanceFunc is called when VerifyAttendance is invoked.
	// If nil, returns false and nil error.
	VerifyAttendanceFunc func(ctx context.Context, calendarID, eventID, email string) (bool, error)

	// Calls records each invocation.
	Calls []MockAttendanceCall
}

// MockAttendanceCall records one VerifyAttendance invocation.
type MockAttendanceCall struct {
	CalendarID string
	EventID    string
	Email      string
}

// VerifyAttendance implements AttendanceVerifier.
func (m *MockAttendanceVerifier) VerifyAttendance(ctx context.Context, calendarID, eventID, email string) (bool, error) {
	m.Calls = append(m.Calls, MockAttendanceCall{CalendarID: calendarID, EventID: eventID, Email: email})
	if m.VerifyAttendanceFunc != nil {
		return m.VerifyAttendanceFunc(ctx, calendarID, eventID, email)
	}
	return false, nil
}

var (
	_ MembershipVerifier = (*MockMembershipVerifier)(nil)
	_ AttendanceVerifier = (*MockAttendanceVerifier)(nil)
)
