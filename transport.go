package session

import "net/http"

// BearerTransport wraps an http.RoundTripper to attach the stored bearer
// token to every outbound request. The token is read synchronously while the
// request is being constructed, so a request dispatched after a completed
// Login carries the new token, and a request already in flight when Logout
// clears the slot keeps the credential it captured. The transport is a pure
// reader: it never mutates session state, even when the server rejects the
// token.
type BearerTransport struct {
	Base  http.RoundTripper
	Store TokenStore
}

var _ http.RoundTripper = (*BearerTransport)(nil)

// NewBearerTransport creates a BearerTransport reading from the given store.
func NewBearerTransport(store TokenStore) *BearerTransport {
	return &BearerTransport{
		Base:  http.DefaultTransport,
		Store: store,
	}
}

// NewHTTPClient returns an http.Client whose requests carry the stored token.
func NewHTTPClient(store TokenStore) *http.Client {
	return &http.Client{Transport: NewBearerTransport(store)}
}

// RoundTrip implements http.RoundTripper
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := ""
	if t.Store != nil {
		// A store read failure is treated as an absent token: the request is
		// dispatched unauthenticated and the server decides.
		token, _ = t.Store.Get()
	}

	if token != "" {
		// Clone the request to avoid mutating the original
		req2 := req.Clone(req.Context())
		req2.Header.Set("Authorization", "Bearer "+token)
		req = req2
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(req)
}
