package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Appointment is a booked visit. Time is a 12-hour clock string such as
// "2:30 PM"; Date is YYYY-MM-DD.
type Appointment struct {
	ID          string  `json:"id"`
	PatientID   string  `json:"patient_id"`
	PatientName string  `json:"patient_name"`
	DoctorName  string  `json:"doctor_name"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes,omitempty"`
}

const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true, StatusCompleted: true, StatusCancelled: true,
}

// To24Hour converts "h:mm AM|PM" to a zero-padded "HH:MM". 12 AM maps to
// hour 00 and 12 PM stays at 12.
func To24Hour(t string) (string, error) {
	parts := strings.Fields(t)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q: expected \"h:mm AM\" or \"h:mm PM\"", t)
	}
	clock, modifier := parts[0], strings.ToUpper(parts[1])
	if modifier != "AM" && modifier != "PM" {
		return "", fmt.Errorf("invalid time %q: missing AM/PM", t)
	}

	hm := strings.Split(clock, ":")
	if len(hm) != 2 || len(hm[1]) != 2 {
		return "", fmt.Errorf("invalid time %q", t)
	}
	hours, err := strconv.Atoi(hm[0])
	if err != nil || hours < 1 || hours > 12 {
		return "", fmt.Errorf("invalid hour in %q", t)
	}
	minutes, err := strconv.Atoi(hm[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("invalid minutes in %q", t)
	}

	if hours == 12 {
		hours = 0
	}
	if modifier == "PM" {
		hours += 12
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// timeKey orders unparsable times after every valid one.
func timeKey(t string) string {
	if k, err := To24Hour(t); err == nil {
		return k
	}
	return "~" + t
}

// SortByTime orders appointments chronologically within a day.
func SortByTime(appts []*Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		return timeKey(appts[i].Time) < timeKey(appts[j].Time)
	})
}
