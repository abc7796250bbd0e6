package utils

// Truncate returns s unchanged if it is at most max bytes, otherwise the
// first max bytes of s. Used when logging or echoing upstream response
// bodies that may be arbitrarily large.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
