package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role      Role
		should    []Permission
		shouldNot []Permission
	}{
		{
			role:      RoleViewer,
			should:    []Permission{PermDeviceRead},
			shouldNot: []Permission{PermDeviceOperate, PermSystemAdmin},
		},
		{
			role:      RoleOperator,
			should:    []Permission{PermDeviceRead, PermDeviceOperate},
			shouldNot: []Permission{PermSystemAdmin},
		},
		{
			role:   RoleAdmin,
			should: []Permission{PermDeviceRead, PermDeviceOperate, PermSystemAdmin},
		},
		{
			role:      Role("unknown"),
			shouldNot: []Permission{PermDeviceRead, PermDeviceOperate, PermSystemAdmin},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, perm := range tt.should {
				if !HasPermission(tt.role, perm) {
					t.Errorf("%s should have %s", tt.role, perm)
				}
			}
			for _, perm := range tt.shouldNot {
				if HasPermission(tt.role, perm) {
					t.Errorf("%s should NOT have %s", tt.role, perm)
				}
			}
		})
	}
}

func TestPermissionsForRole(t *testing.T) {
	perms := PermissionsForRole(RoleOperator)
	if len(perms) != 2 {
		t.Fatalf("operator permissions = %v", perms)
	}

	// Returned slice is a copy.
	perms[0] = PermSystemAdmin
	if HasPermission(RoleOperator, PermSystemAdmin) {
		t.Error("mutating returned slice changed the role model")
	}

	if PermissionsForRole(Role("unknown")) != nil {
		t.Error("unknown role should have nil permissions")
	}
}
