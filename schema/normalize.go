package schema

import (
	"strings"
)

// ValidateUserID ensures a user id matches [a-z0-9._-] with no normalization.
func ValidateUserID(userID UserID) error {
	raw := string(userID)
	if raw == "" {
		return ErrInvalidUser
	}
	if strings.TrimSpace(raw) != raw {
		return ErrInvalidUser
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidUser
	}
	return nil
}

// JID is a parsed local@domain/resource address.
type JID struct {
	Local    string
	Domain   string
	Resource string
}

// ParseJID splits a JID into its parts. A missing domain is an error.
func ParseJID(raw string) (JID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\r\n") {
		return JID{}, ErrInvalidJID
	}
	var jid JID
	rest := trimmed
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		jid.Resource = rest[idx+1:]
		rest = rest[:idx]
		if jid.Resource == "" {
			return JID{}, ErrInvalidJID
		}
	}
	if idx := strings.IndexByte(rest, '@'); idx >= 0 {
		jid.Local = rest[:idx]
		rest = rest[idx+1:]
		if jid.Local == "" {
			return JID{}, ErrInvalidJID
		}
	}
	if rest == "" || strings.ContainsAny(rest, "@/") {
		return JID{}, ErrInvalidJID
	}
	jid.Domain = strings.ToLower(rest)
	return jid, nil
}

// Bare returns local@domain.
func (j JID) Bare() string {
	if j.Local == "" {
		return j.Domain
	}
	return j.Local + "@" + j.Domain
}

// String returns the full JID including the resource when present.
func (j JID) String() string {
	if j.Resource == "" {
		return j.Bare()
	}
	return j.Bare() + "/" + j.Resource
}

// BareJID builds the JID of a local user on the domain.
func BareJID(user UserID, domain string) string {
	return string(user) + "@" + domain
}

// RoomDomain is the conference service domain for a server domain.
func RoomDomain(domain string) string {
	return "conference." + domain
}

// QualifyJID expands a bare local name to local@domain and validates the result.
func QualifyJID(raw, domain string) (JID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && !strings.Contains(trimmed, "@") {
		trimmed = trimmed + "@" + domain
	}
	return ParseJID(trimmed)
}
