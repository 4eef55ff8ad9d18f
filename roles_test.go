package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courselane/go-session"
)

func TestRoleIsValid(t *testing.T) {
	assert.True(t, session.RoleStudent.IsValid())
	assert.True(t, session.RoleCreator.IsValid())
	assert.True(t, session.RoleAdmin.IsValid())

	assert.False(t, session.Role("").IsValid())
	assert.False(t, session.Role("superuser").IsValid())
	assert.False(t, session.Role("Student").IsValid(), "roles are case sensitive")
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected session.Role
		ok       bool
	}{
		{"student", session.RoleStudent, true},
		{"creator", session.RoleCreator, true},
		{"admin", session.RoleAdmin, true},
		{"moderator", session.Role("moderator"), false},
		{"", session.Role(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, ok := session.ParseRole(tt.input)
			assert.Equal(t, tt.expected, role)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestAllRoles(t *testing.T) {
	roles := session.AllRoles()

	assert.Len(t, roles, 3)
	for _, role := range roles {
		assert.True(t, role.IsValid())
	}
}
