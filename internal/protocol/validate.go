package protocol

// ValidateUsername reports whether s is a legal username: 1 to 31 bytes of
// ASCII letters, digits, or underscore.
func ValidateUsername(s string) bool {
	if len(s) == 0 || len(s) > MaxUsernameLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// ValidateContent reports whether s is legal chat content: 1 to 255 bytes.
func ValidateContent(s string) bool {
	return len(s) >= 1 && len(s) <= MaxContentLen
}
