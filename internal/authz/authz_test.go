package authz

import (
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/pkg/middleware"
)

var _ middleware.Enforcer = (*casbin.SyncedEnforcer)(nil)

func TestEnforcer_RoleGates(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role    string
		obj     string
		act     string
		allowed bool
	}{
		{domain.RoleBrand, ObjProduct, ActCreate, true},
		{domain.RoleAdmin, ObjProduct, ActCreate, true},
		{domain.RoleTester, ObjProduct, ActCreate, false},
		{domain.RoleTester, ObjReview, ActCreate, true},
		{domain.RoleBrand, ObjReview, ActCreate, false},
		{domain.RoleAdmin, ObjReview, ActCreate, false},
		{domain.RoleBrand, ObjInsights, ActRead, true},
		{domain.RoleTester, ObjInsights, ActRead, false},
		{domain.RoleAdmin, ObjInsights, ActRead, false},
		{"Stranger", ObjProduct, ActCreate, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.act+" "+tt.obj, func(t *testing.T) {
			ok, err := e.Enforce(tt.role, tt.obj, tt.act)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok)
		})
	}
}

func TestLoadPolicy_Malformed(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	assert.Error(t, loadPolicy(e, "p, Brand, product"))
	assert.NoError(t, loadPolicy(e, "# comment only\n\n"))
	assert.NoError(t, loadPolicy(e, "g, Admin, Brand"))
}
