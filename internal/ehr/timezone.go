package ehr

import "time"

// ResolveTimezone resolves an IANA timezone name, falling back to UTC when
// the name is invalid or unknown. Callers log the fallback if they care.
func ResolveTimezone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}
