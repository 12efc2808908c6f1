package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitDepDate extracts day and month from a "YYYY-MM-DD" departure date.
// The components are not validated against the calendar, so "2025-13-40"
// yields month 13, day 40.
func SplitDepDate(depDate string) (day, month int, err error) {
	parts := strings.Split(strings.TrimSpace(depDate), "-")
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("dep_date %q is not in YYYY-MM-DD form", depDate)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("dep_date %q has a non-numeric month: %w", depDate, err)
	}
	day, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("dep_date %q has a non-numeric day: %w", depDate, err)
	}
	return day, month, nil
}
