package reportgen

import (
	"strconv"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

// LongDate is the display layout for every date in a document.
const LongDate = "2 January 2006"

// FormatINR renders amount in rupees with Indian digit grouping and two
// decimals: 123456.78 becomes ₹1,23,456.78.
func FormatINR(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac := s[:len(s)-3], s[len(s)-2:]
	if whole == "0" && frac == "00" {
		sign = ""
	}
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// groupIndian inserts separators after the last three digits and then after
// every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

// formatDate renders a stored date in LongDate form. Values that do not
// parse are returned unchanged.
func formatDate(s string, loc *time.Location) string {
	t, err := clinicdate.Parse(s, loc)
	if err != nil {
		return s
	}
	return t.In(loc).Format(LongDate)
}
