package cli

import (
	"fmt"
	"time"
)

// Event dates are labelled MonthYear, e.g. "April2026".
const monthYearLayout = "January2006"

// MonthChoices returns the next n MonthYear labels starting from the
// month of now.
func MonthChoices(now time.Time, n int) []string {
	out := make([]string, 0, n)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out = append(out, month.Format(monthYearLayout))
		month = month.AddDate(0, 1, 0)
	}
	return out
}

// ValidateMonthYear checks a manually supplied event date label.
func ValidateMonthYear(s string) error {
	if _, err := time.Parse(monthYearLayout, s); err != nil {
		return fmt.Errorf("event date %q is not in MonthYear form (e.g. April2026)", s)
	}
	return nil
}
