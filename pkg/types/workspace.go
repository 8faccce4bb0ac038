package types

// ScopeKind is the two-valued tenant selection all timer and project data
// is filtered by.
type ScopeKind string

const (
	ScopePersonal ScopeKind = "personal"
	ScopeTeam     ScopeKind = "team"
)

// WorkspaceScope is the active tenant scope. A team scope always resolves
// to exactly one organization from the user's memberships.
type WorkspaceScope struct {
	Kind  ScopeKind `json:"kind"`
	OrgID string    `json:"orgID,omitempty"`
}

// Personal returns the personal scope value.
func Personal() WorkspaceScope {
	return WorkspaceScope{Kind: ScopePersonal}
}

// Team returns a team scope for the given organization.
func Team(orgID string) WorkspaceScope {
	return WorkspaceScope{Kind: ScopeTeam, OrgID: orgID}
}

// IsTeam reports whether the scope selects team data.
func (s WorkspaceScope) IsTeam() bool {
	return s.Kind == ScopeTeam
}

// Organization is a team the user can belong to.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Membership ties the user to an organization with a role.
type Membership struct {
	ID           string       `json:"id"`
	Organization Organization `json:"organization"`
	Role         string       `json:"role"`
}
