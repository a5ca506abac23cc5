package lifecycle

import "strings"

// DefaultNamePrefix is used when no prefix template is configured.
const DefaultNamePrefix = "{location}_wa"

// Tenant is the immutable scope a Manager works in.
type Tenant struct {
	LocationID string
	NamePrefix string
}

// ResolveTenant picks the location id from the request query first and the
// configured fallback second. prefixTemplate may contain "{location}".
func ResolveTenant(query, fallback, prefixTemplate string) Tenant {
	loc := strings.TrimSpace(query)
	if loc == "" {
		loc = strings.TrimSpace(fallback)
	}
	if loc == "" {
		return Tenant{}
	}
	if strings.TrimSpace(prefixTemplate) == "" {
		prefixTemplate = DefaultNamePrefix
	}
	return Tenant{
		LocationID: loc,
		NamePrefix: strings.ReplaceAll(prefixTemplate, "{location}", loc),
	}
}

// Resolved reports whether a location id is present.
func (t Tenant) Resolved() bool {
	return t.LocationID != ""
}
