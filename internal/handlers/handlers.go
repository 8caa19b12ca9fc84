package handlers

import (
	"errors"
	"time"
)

// Sentinels carried out of the per-request transaction so the HTTP status
// can be decided after commit/rollback. errNotFound doubles as the
// non-disclosure answer for resources the caller does not own.
var (
	errNotFound  = errors.New("not found")
	errForbidden = errors.New("forbidden")
)

// Accepted reading date layouts: full RFC3339, naive datetime, bare date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseReadingDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// formatReadingDate renders timestamps the way clients expect them:
// second precision, no offset ("2025-01-01T00:00:00").
func formatReadingDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
