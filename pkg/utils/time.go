package utils

import "time"

// NowRFC3339 returns the current time in RFC3339 format
func NowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}

// FormatRFC3339 formats a time in RFC3339 format
func FormatRFC3339(t time.Time) string {
	return t.Format(time.RFC3339)
}
