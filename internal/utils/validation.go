package utils

import (
	"fmt"
	"time"
)

// ParseDateFlag parses a date string in ISO format (YYYY-MM-DD).
// Returns nil for empty strings (used to mean "no bound").
// Returns error for invalid formats or dates.
func ParseDateFlag(dateStr string) (*time.Time, error) {
	// Empty string means no filter
	if dateStr == "" {
		return nil, nil
	}

	// Parse ISO date format (YYYY-MM-DD) in local timezone
	parsedDate, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return nil, ErrInvalidDate(dateStr)
	}

	return &parsedDate, nil
}

// ValidateDateRange checks that a since/until pair is logically
// consistent. Either bound may be nil.
func ValidateDateRange(since, until *time.Time) error {
	if since == nil || until == nil {
		return nil
	}
	if since.After(*until) {
		return fmt.Errorf("since date (%s) cannot be after until date (%s)",
			since.Format("2006-01-02"),
			until.Format("2006-01-02"))
	}
	return nil
}
