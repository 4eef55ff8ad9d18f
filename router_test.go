package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courselane/go-session"
)

func TestRouteForRole(t *testing.T) {
	tests := []struct {
		name     string
		role     session.Role
		expected session.Destination
	}{
		{"student goes to the dashboard", session.RoleStudent, session.DestinationStudentHome},
		{"creator goes to the creator dashboard", session.RoleCreator, session.DestinationCreatorHome},
		{"admin goes to the admin dashboard", session.RoleAdmin, session.DestinationAdminHome},
		{"unknown role falls back to the student dashboard", session.Role("superuser"), session.DestinationStudentHome},
		{"empty role falls back to the student dashboard", session.Role(""), session.DestinationStudentHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, session.RouteForRole(tt.role))
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	navigator := &recordingNavigator{}
	router := session.NewRouter(navigator)

	dest := router.Dispatch(&session.Identity{ID: "u1", Role: session.RoleCreator})

	assert.Equal(t, session.DestinationCreatorHome, dest)
	assert.Equal(t, session.DestinationCreatorHome, navigator.last())
	assert.Len(t, navigator.destinations, 1)
}

func TestRouterDispatchNilIdentity(t *testing.T) {
	navigator := &recordingNavigator{}
	router := session.NewRouter(navigator)

	dest := router.Dispatch(nil)

	assert.Equal(t, session.DestinationLanding, dest)
	assert.Equal(t, session.DestinationLanding, navigator.last())
}

func TestRouterDispatchNilNavigator(t *testing.T) {
	router := session.NewRouter(nil)

	assert.NotPanics(t, func() {
		dest := router.Dispatch(&session.Identity{Role: session.RoleAdmin})
		assert.Equal(t, session.DestinationAdminHome, dest)
	})
}
