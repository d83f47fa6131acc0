package healthie

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/northbridgehealth/voice-agent/internal/ehr"
)

var (
	nameDOBPattern   = regexp.MustCompile(`([A-Za-z][A-Za-z\- ]+?)\s*\((\d{1,2})/(\d{1,2})/(\d{4})\)`)
	profileIDPattern = regexp.MustCompile(`/(?:patients|clients|users)/(\d+)`)
)

// parseNameDOB extracts a first name, last name and date of birth from text
// like "Marc Camps (5/18/2003)". A single-word name before the parenthesized
// date does not match; a calendar-invalid date does not match.
func parseNameDOB(text string) (first, last string, dob ehr.Date, ok bool) {
	m := nameDOBPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", ehr.Date{}, false
	}

	fullName := strings.TrimSpace(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[4])

	// time.Date normalizes out-of-range components; reject anything that
	// does not round-trip.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", "", ehr.Date{}, false
	}

	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return "", "", ehr.Date{}, false
	}

	first = parts[0]
	last = strings.Join(parts[1:], " ")
	return first, last, ehr.Date{Year: year, Month: time.Month(month), Day: day}, true
}

// extractIDFromURL extracts the numeric patient/user ID from a Healthie
// profile URL, e.g. "/users/123" -> "123".
func extractIDFromURL(url string) string {
	m := profileIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
