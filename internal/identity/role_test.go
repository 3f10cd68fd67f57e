package identity_test

import (
	"testing"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"consumer", "owner", "manager", "sales"} {
		r, err := identity.ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, s, r.String())
	}

	_, err := identity.ParseRole("supplier")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = identity.ParseRole("")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role         identity.Role
		supplierSide bool
		staff        bool
		manage       bool
	}{
		{role: identity.RoleConsumer},
		{role: identity.RoleOwner, supplierSide: true, manage: true},
		{role: identity.RoleManager, supplierSide: true, staff: true, manage: true},
		{role: identity.RoleSales, supplierSide: true, staff: true},
		{role: identity.Role("admin")},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.supplierSide, tt.role.IsSupplierSide())
			assert.Equal(t, tt.staff, tt.role.IsStaff())
			assert.Equal(t, tt.manage, tt.role.CanManageCatalog())
			assert.Equal(t, tt.manage, tt.role.CanManageLinks())
			assert.Equal(t, tt.manage, tt.role.CanManageOrders())
		})
	}
}
