package sheet

import "strings"

// Role is the semantic meaning of a column in a test-result sheet
type Role string

const (
	RoleProduct    Role = "product"
	RoleDate       Role = "date"
	RoleTensile    Role = "tensile"
	RoleElongation Role = "elongation"
	RoleModulus    Role = "modulus"
)

// Roles lists every role in display order
var Roles = []Role{RoleProduct, RoleDate, RoleTensile, RoleElongation, RoleModulus}

// roleKeywords maps each role to the header substrings that identify it.
// Elongation is commonly misspelled in source sheets, hence two keywords.
var roleKeywords = map[Role][]string{
	RoleProduct:    {"제품"},
	RoleDate:       {"날짜"},
	RoleTensile:    {"인장강도"},
	RoleElongation: {"연신", "연실"},
	RoleModulus:    {"모듈러스"},
}

// Keywords returns the header substrings for a role
func (r Role) Keywords() []string {
	return roleKeywords[r]
}

// Column is the result of resolving a role against a header row
type Column struct {
	Index int
	Found bool
}

// NotFound is the column value for an unresolved role
var NotFound = Column{Index: -1}

// Cell returns the row's cell for this column. Unresolved columns always
// yield an absent cell.
func (c Column) Cell(r Row) Cell {
	if !c.Found {
		return Absent()
	}
	return r.At(c.Index)
}

// Resolve scans the header left to right and returns the first column whose
// name contains any of the keywords. Matching is case-sensitive.
func Resolve(header []string, keywords ...string) Column {
	for i, name := range header {
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return Column{Index: i, Found: true}
			}
		}
	}
	return NotFound
}

// ResolveRole resolves a single role
func ResolveRole(header []string, role Role) Column {
	return Resolve(header, role.Keywords()...)
}

// Resolution holds the column of every role for one header row
type Resolution map[Role]Column

// ResolveRoles resolves all known roles against the header
func ResolveRoles(header []string) Resolution {
	res := make(Resolution, len(Roles))
	for _, role := range Roles {
		res[role] = ResolveRole(header, role)
	}
	return res
}

// Missing returns the roles among want that did not resolve, in order
func (r Resolution) Missing(want ...Role) []Role {
	var missing []Role
	for _, role := range want {
		if col, ok := r[role]; !ok || !col.Found {
			missing = append(missing, role)
		}
	}
	return missing
}

// Indices returns role -> index with -1 for unresolved roles
func (r Resolution) Indices() map[Role]int {
	out := make(map[Role]int, len(r))
	for role, col := range r {
		out[role] = col.Index
	}
	return out
}
