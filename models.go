package session

// Role is the identity's role
type Role string

const (
	// RoleStudent browses the catalog and takes courses
	RoleStudent Role = "student"
	// RoleCreator publishes and manages courses
	RoleCreator Role = "creator"
	// RoleAdmin administers the marketplace
	RoleAdmin Role = "admin"
)

// Identity is the authenticated user's resolved profile record.
type Identity struct {
	ID             string `json:"id,omitempty"`
	DisplayName    string `json:"display_name,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           Role   `json:"role,omitempty"`
	Phone          string `json:"phone_number,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

// LoadingState tells dependent UI whether the session finished restoring
// persisted state.
type LoadingState string

const (
	// StateInitializing is set until the stored token (if any) has been
	// exchanged for an identity or found invalid
	StateInitializing LoadingState = "initializing"
	// StateReady is set unconditionally once initialization completes
	StateReady LoadingState = "ready"
)

// TokenGrant is the token issuer's response to a successful login or
// registration.
type TokenGrant struct {
	Token    string    `json:"token"`
	Identity *Identity `json:"identity"`
}
