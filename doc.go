// Package session manages the authenticated session of a Courselane
// marketplace client: issuing, persisting, and propagating a bearer token,
// resolving the identity behind it, routing identities by role, and driving
// the credential-recovery lifecycle.
//
// Session lifecycle:
//   - Manager is the single owner of session state (identity + persisted
//     token). Every identity-affecting operation (Initialize, Login, Register,
//     Logout, UpdateProfile) goes through it; readers never write.
//   - TokenStore is the durable slot backing the Manager. The token is opaque:
//     it is stored and attached to requests, never parsed client side.
//   - BearerTransport attaches the stored token to outbound requests at
//     construction time, so a request dispatched after Login always carries
//     the new token and a request in flight during Logout keeps the one it
//     captured.
//
// Role routing:
//   - Role is a closed enum (student, creator, admin). RouteForRole maps a
//     just-authenticated identity to its home surface exactly once, after
//     Login or Register resolve. Restored sessions are never redirected.
//
// Recovery:
//   - RecoveryRequestFlow and PasswordResetFlow are the two phases of the
//     forgot-password state machine. They share no state; phase two is entered
//     fresh from the token carried by the /reset-password/{token} route.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing login, logout,
//     restore, profile, and recovery events. Sinks run best-effort (errors are
//     logged) so telemetry never blocks an auth operation.
package session
