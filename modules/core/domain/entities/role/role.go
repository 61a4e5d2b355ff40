package role

import "context"

// The fixed role catalogue. Authoriser roles gate approval decisions per
// entity kind; inputter roles mark who may propose changes.
const (
	SuperAdminAuthoriser  = "Super_Admin_Authoriser"
	SuperAdminInputter    = "Super_Admin_Inputter"
	InstitutionAuthoriser = "Institution_Authoriser"
	InstitutionInputter   = "Institution_Inputter"
)

// BuiltIn lists the roles seeded at startup.
func BuiltIn() []string {
	return []string{
		SuperAdminAuthoriser,
		SuperAdminInputter,
		InstitutionAuthoriser,
		InstitutionInputter,
	}
}

type Role struct {
	ID   uint
	Name string
}

type Repository interface {
	GetByName(ctx context.Context, name string) (*Role, error)
	EnsureExists(ctx context.Context, name string) (*Role, error)
	AssignToUser(ctx context.Context, userID, roleID uint) error
	HasRole(ctx context.Context, userID uint, roleName string) (bool, error)
	UserRoles(ctx context.Context, userID uint) ([]*Role, error)
}
