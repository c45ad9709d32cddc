package models

// AccountStatus represents the lifecycle state of an account.
// Only active accounts may authenticate.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusInactive  AccountStatus = "inactive"
	AccountStatusPending   AccountStatus = "pending"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusExpired   AccountStatus = "expired"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusPending,
		AccountStatusSuspended, AccountStatusExpired:
		return true
	}
	return false
}

func (s AccountStatus) String() string {
	return string(s)
}

// Role is a tag expanding to a fixed permission set. The expansion lives in
// roleGrants below; roles never carry per-account permissions.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAdvisor    Role = "advisor"
	RoleCompliance Role = "compliance"
	RoleViewer     Role = "viewer"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	_, ok := roleGrants[r]
	return ok
}

// Permission keys for the admin surface.
const (
	PermClientsRead       = "clients.read"
	PermClientsWrite      = "clients.write"
	PermInvestmentsRead   = "investments.read"
	PermInvestmentsWrite  = "investments.write"
	PermCertificatesRead  = "certificates.read"
	PermCertificatesWrite = "certificates.write"
	PermReportsRead       = "reports.read"
	PermAccountsManage    = "accounts.manage"
)

// roleGrants is the static role→permission table. Authorization checks are
// set-membership tests against it.
var roleGrants = map[Role]map[string]struct{}{
	RoleAdmin: permSet(
		PermClientsRead, PermClientsWrite,
		PermInvestmentsRead, PermInvestmentsWrite,
		PermCertificatesRead, PermCertificatesWrite,
		PermReportsRead, PermAccountsManage,
	),
	RoleAdvisor: permSet(
		PermClientsRead, PermClientsWrite,
		PermInvestmentsRead, PermInvestmentsWrite,
		PermCertificatesRead,
	),
	RoleCompliance: permSet(
		PermClientsRead,
		PermInvestmentsRead,
		PermCertificatesRead,
		PermReportsRead,
	),
	RoleViewer: permSet(
		PermClientsRead,
		PermInvestmentsRead,
		PermCertificatesRead,
	),
}

func permSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Permissions returns the fixed permission set for the role.
func (r Role) Permissions() []string {
	grants, ok := roleGrants[r]
	if !ok {
		return nil
	}
	perms := make([]string, 0, len(grants))
	for p := range grants {
		perms = append(perms, p)
	}
	return perms
}

// Grants reports whether the role's permission set contains the permission.
func (r Role) Grants(permission string) bool {
	_, ok := roleGrants[r][permission]
	return ok
}

// RolesGrant reports whether any of the role tags grants the permission.
// Unknown role tags grant nothing.
func RolesGrant(roles []string, permission string) bool {
	for _, name := range roles {
		if Role(name).Grants(permission) {
			return true
		}
	}
	return false
}
