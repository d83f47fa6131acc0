package healthie

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/northbridgehealth/voice-agent/internal/ehr"
)

func TestDateToUSLong(t *testing.T) {
	assert.Equal(t, "March 22, 2026", dateToUSLong(ehr.Date{Year: 2026, Month: 3, Day: 22}))
	assert.Equal(t, "January 1, 2027", dateToUSLong(ehr.Date{Year: 2027, Month: 1, Day: 1}))
}

func TestDateToShort(t *testing.T) {
	assert.Equal(t, "Mar 12, 2026", dateToShort(ehr.Date{Year: 2026, Month: 3, Day: 12}))
	assert.Equal(t, "Dec 31, 2026", dateToShort(ehr.Date{Year: 2026, Month: 12, Day: 31}))
}

func TestTimeTo12H(t *testing.T) {
	tests := []struct {
		name string
		in   ehr.TimeOfDay
		want string
	}{
		{"afternoon", ehr.TimeOfDay{Hour: 14, Minute: 30}, "2:30 PM"},
		{"midnight", ehr.TimeOfDay{Hour: 0, Minute: 0}, "12:00 AM"},
		{"noon", ehr.TimeOfDay{Hour: 12, Minute: 0}, "12:00 PM"},
		{"morning single digit", ehr.TimeOfDay{Hour: 9, Minute: 5}, "9:05 AM"},
		{"just before midnight", ehr.TimeOfDay{Hour: 23, Minute: 59}, "11:59 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeTo12H(tt.in))
		})
	}
}
