package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/sportup/internal/domain/identity"
)

func TestCanMutate(t *testing.T) {
	e := NewEvent("creator", "Creator", validDetails())

	tests := []struct {
		name  string
		actor identity.Identity
		want  bool
	}{
		{name: "作成者", actor: identity.Identity{UID: "creator", Roles: []identity.Role{identity.RoleUser}}, want: true},
		{name: "管理者", actor: identity.Identity{UID: "admin", Roles: []identity.Role{identity.RoleUser, identity.RoleAdmin}}, want: true},
		{name: "他のユーザー", actor: identity.Identity{UID: "other", Roles: []identity.Role{identity.RoleUser}}, want: false},
		{name: "未認証", actor: identity.Identity{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.actor, e))
		})
	}

	assert.False(t, CanMutate(identity.Identity{UID: "creator"}, nil))
}
