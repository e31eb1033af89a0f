package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CalendarAttendanceVerifier checks event attendance against a calendar
// REST API.
type CalendarAttendanceVerifier struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewCalendarAttendanceVerifier creates a verifier for the calendar service
// at baseURL.
func NewCalendarAttendanceVerifier(baseURL, token string, timeout time.Duration) *CalendarAttendanceVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CalendarAttendanceVerifier{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
	}
}

type eventResponse struct {
	Attendees []struct {
		Email string `json:"email"`
	} `json:"attendees"`
}

// VerifyAttendance implements AttendanceVerifier. It fetches the event and
// scans its attendee list for the email.
func (v *CalendarAttendanceVerifier) VerifyAttendance(ctx context.Context, calendarID, eventID, email string) (bool, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		v.baseURL, url.PathEscape(calendarID), url.PathEscape(eventID))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", v.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("event request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("attendance check failed: status %d", resp.StatusCode)
	}

	var result eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	for _, attendee := range result.Attendees {
		if strings.EqualFold(attendee.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// Ensure CalendarAttendanceVerifier implements AttendanceVerifier at compile time.
var _ AttendanceVerifier = (*CalendarAttendanceVerifier)(nil)
