package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatDirectoryVerifier_Member(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/members/bob@example.com", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"member": true}`))
	}))
	defer server.Close()

	v := NewChatDirectoryVerifier(server.URL, "test-token", 5*time.Second)
	member, err := v.VerifyMembership(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.True(t, member)
}

func TestChatDirectoryVerifier_NotFoundIsNotMember(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	v := NewChatDirectoryVerifier(server.URL, "test-token", 5*time.Second)
	member, err := v.VerifyMembership(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestChatDirectoryVerifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	v := NewChatDirectoryVerifier(server.URL, "test-token", 5*time.Second)
	_, err := v.VerifyMembership(context.Background(), "bob@example.com")
	assert.Error(t, err)
}

func TestCalendarAttendanceVerifier_Attendee(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events/evt-42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"attendees": [{"email": "Bob@Example.com"}, {"email": "jane@example.com"}]}`))
	}))
	defer server.Close()

	v := NewCalendarAttendanceVerifier(server.URL, "test-token", 5*time.Second)

	// Attendee comparison is case-insensitive.
	attended, err := v.VerifyAttendance(context.Background(), "primary", "evt-42", "bob@example.com")
	require.NoError(t, err)
	assert.True(t, attended)

	attended, err = v.VerifyAttendance(context.Background(), "primary", "evt-42", "stranger@example.com")
	require.NoError(t, err)
	assert.False(t, attended)
}

func TestCalendarAttendanceVerifier_MissingEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	v := NewCalendarAttendanceVerifier(server.URL, "test-token", 5*time.Second)
	attended, err := v.VerifyAttendance(context.Background(), "primary", "gone", "bob@example.com")
	require.NoError(t, err)
	assert.False(t, attended)
}
