package healthie

import (
	"fmt"

	"github.com/northbridgehealth/voice-agent/internal/ehr"
)

// dateToUSLong converts a date to the long US form Healthie's date input
// expects, e.g. "March 22, 2026".
func dateToUSLong(d ehr.Date) string {
	return fmt.Sprintf("%s %d, %d", d.Month.String(), d.Day, d.Year)
}

// dateToShort converts a date to the short form shown in Healthie's
// appointment list, e.g. "Mar 12, 2026".
func dateToShort(d ehr.Date) string {
	return fmt.Sprintf("%s %d, %d", d.Month.String()[:3], d.Day, d.Year)
}

// timeTo12H converts a clock time to Healthie's time-picker form. The
// dropdown uses no leading zero on the hour ("3:30 PM", not "03:30 PM").
func timeTo12H(t ehr.TimeOfDay) string {
	hour := t.Hour % 12
	if hour == 0 {
		hour = 12
	}
	period := "AM"
	if t.Hour >= 12 {
		period = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute, period)
}
