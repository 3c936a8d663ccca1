package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Role names carried in the JWT and checked by the enforcer. The domain
// has exactly two roles; policies are static, not tenant-editable.
const (
	RoleEmployee   = "employee"
	RoleManagement = "management"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// policies: role, object, action
var policies = [][]string{
	{RoleEmployee, "reports", "submit"},
	{RoleEmployee, "reports", "read_own"},
	{RoleEmployee, "pto_requests", "submit"},
	{RoleEmployee, "pto_requests", "read_own"},
	// Notifications are organization-visible, not a management privilege.
	{RoleEmployee, "notifications", "read"},
	{RoleManagement, "reports", "read_all"},
	{RoleManagement, "reports", "allocate"},
	{RoleManagement, "pto_requests", "read_all"},
	{RoleManagement, "pto_requests", "decide"},
}

// Management inherits the employee role: managers can submit their own
// reports and PTO requests too.
var groupings = [][]string{
	{RoleManagement, RoleEmployee},
}

// NewEnforcer builds the in-memory casbin enforcer with the module's
// static policy set.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	for _, g := range groupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}

	return e, nil
}
