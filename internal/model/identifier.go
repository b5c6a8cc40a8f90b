package model

// ParseIdentifier validates a caller-supplied identifier string before it is
// used against the store. Identifiers are opaque provider IDs: non-empty,
// bounded length, limited to unambiguous URL-safe characters.
func ParseIdentifier(s string) (Identifier, error) {
	if s == "" || len(s) > 64 {
		return "", ErrInvalidIdentifier
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return "", ErrInvalidIdentifier
		}
	}
	return Identifier(s), nil
}
