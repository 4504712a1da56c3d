package roles

import "strings"

// GlobalRole is the application-wide role attached to a profile.
type GlobalRole string

const (
	GlobalAdmin      GlobalRole = "ADMIN"
	GlobalMOE        GlobalRole = "MOE"
	GlobalMandataire GlobalRole = "MANDATAIRE"
	GlobalStandard   GlobalRole = "STANDARD"
	// GlobalUnknown marks a profile value outside the closed set.
	GlobalUnknown GlobalRole = "UNKNOWN"
)

// MarcheRole is a role scoped to a single marché.
type MarcheRole string

const (
	MarcheMOE        MarcheRole = "MOE"
	MarcheMandataire MarcheRole = "MANDATAIRE"
	// MarcheNone is the sentinel for "no assignment". Lookup failures
	// collapse to the same sentinel; callers cannot tell the two apart.
	MarcheNone    MarcheRole = ""
	MarcheUnknown MarcheRole = "UNKNOWN"
)

// ParseGlobalRole normalizes a raw profile value into the closed enum.
// Empty values default to STANDARD; anything else unrecognized maps to
// UNKNOWN so malformed data never travels as a free-form string.
func ParseGlobalRole(raw string) GlobalRole {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(GlobalAdmin):
		return GlobalAdmin
	case string(GlobalMOE):
		return GlobalMOE
	case string(GlobalMandataire):
		return GlobalMandataire
	case string(GlobalStandard), "":
		return GlobalStandard
	default:
		return GlobalUnknown
	}
}

// ParseMarcheRole normalizes a raw assignment value. Empty means no role.
func ParseMarcheRole(raw string) MarcheRole {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(MarcheMOE):
		return MarcheMOE
	case string(MarcheMandataire):
		return MarcheMandataire
	case "":
		return MarcheNone
	default:
		return MarcheUnknown
	}
}

// Valid reports whether the role belongs to the closed set.
func (r GlobalRole) Valid() bool {
	switch r {
	case GlobalAdmin, GlobalMOE, GlobalMandataire, GlobalStandard:
		return true
	}
	return false
}

// AssignableMarcheRoles lists the roles a collaborator can be granted.
func AssignableMarcheRoles() []MarcheRole {
	return []MarcheRole{MarcheMOE, MarcheMandataire}
}
