package session

// RoleGeneral is the fallback role key for unrecognized grantor role hints.
const RoleGeneral = "general"

// roleHints maps grantor-side role hints to the host application's role keys.
// The set is fixed; anything outside it maps to RoleGeneral.
var roleHints = map[string]string{
	"frontend_developer":    "frontend",
	"backend_developer":     "backend",
	"data_scientist":        "data_science",
	"devops_engineer":       "devops",
	"ui_ux_designer":        RoleGeneral,
	"product_manager":       RoleGeneral,
	"cybersecurity_analyst": "cybersecurity",
}

// MapRole translates a grantor role hint to an internal role key.
func MapRole(hint string) string {
	if role, ok := roleHints[hint]; ok {
		return role
	}
	return RoleGeneral
}
