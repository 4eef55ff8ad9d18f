package session

// Destination is a navigation surface an identity can be sent to.
type Destination string

const (
	// DestinationStudentHome is the student dashboard
	DestinationStudentHome Destination = "/dashboard"
	// DestinationCreatorHome is the creator dashboard
	DestinationCreatorHome Destination = "/creator/dashboard"
	// DestinationAdminHome is the admin dashboard
	DestinationAdminHome Destination = "/admin/dashboard"
	// DestinationLanding is the public landing surface shown after logout
	DestinationLanding Destination = "/"
	// DestinationLogin is where a finished password reset redirects to
	DestinationLogin Destination = "/login"
)

// RouteForRole maps a just-authenticated role to its home surface. Creator
// and admin take precedence in that check order; anything else lands on the
// student dashboard.
func RouteForRole(role Role) Destination {
	switch role {
	case RoleCreator:
		return DestinationCreatorHome
	case RoleAdmin:
		return DestinationAdminHome
	case RoleStudent:
		return DestinationStudentHome
	}
	return DestinationStudentHome
}

// Router dispatches a just-authenticated identity to its destination surface.
// It is invoked exactly once, synchronously after a successful Login or
// Register resolves — never during Initialize, so returning users stay on
// whatever surface they navigated to.
type Router struct {
	navigator Navigator
}

// NewRouter creates a Router with the given Navigator.
func NewRouter(navigator Navigator) *Router {
	return &Router{navigator: normalizeNavigator(navigator)}
}

// Dispatch resolves the destination for the identity's role and navigates
// there. A nil identity routes to the public landing surface.
func (r *Router) Dispatch(identity *Identity) Destination {
	dest := DestinationLanding
	if identity != nil {
		dest = RouteForRole(identity.Role)
	}

	r.navigator.NavigateTo(dest)
	return dest
}
