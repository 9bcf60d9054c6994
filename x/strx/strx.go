package strx

// Coalesce returns the first non-empty string, or "".
func Coalesce(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
