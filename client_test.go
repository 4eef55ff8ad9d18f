package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselane/go-session"
)

func TestClientLoginClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "401 is invalid credentials",
			status: http.StatusUnauthorized,
			body:   `{"message":"invalid identifier or password"}`,
			check:  session.IsInvalidCredentials,
		},
		{
			name:   "403 is invalid credentials",
			status: http.StatusForbidden,
			body:   `{"message":"account suspended"}`,
			check:  session.IsInvalidCredentials,
		},
		{
			name:   "500 is a server failure",
			status: http.StatusInternalServerError,
			body:   `{"message":"boom"}`,
			check:  session.IsServerFailure,
		},
		{
			name:   "422 is a validation failure",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"password must be at least 8 characters"}`,
			check:  session.IsValidationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newIdentityAPI(t, map[string]http.Handler{
				"/auth/login": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					jsonResponse(w, tt.status, tt.body)
				}),
			})

			client := session.NewClient(srv.URL, nil)
			_, err := client.Login(context.Background(), session.LoginRequest{
				Identifier: "pepe.rone@example.com",
				Password:   "some_secret_word",
			})

			require.Error(t, err)
			assert.True(t, tt.check(err))
		})
	}
}

func TestClientNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens anymore

	client := session.NewClient(srv.URL, nil)
	_, err := client.Login(context.Background(), session.LoginRequest{
		Identifier: "pepe.rone@example.com",
		Password:   "some_secret_word",
	})

	require.Error(t, err)
	assert.True(t, session.IsNetworkFailure(err))
}

func TestClientResolveIdentitySendsBearer(t *testing.T) {
	var gotAuth string
	srv := newIdentityAPI(t, map[string]http.Handler{
		"/auth/me": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, http.StatusOK, identityJSON)
		}),
	})

	client := session.NewClient(srv.URL, nil)
	identity, err := client.ResolveIdentity(context.Background(), "the-token")
	require.NoError(t, err)

	assert.Equal(t, "Bearer the-token", gotAuth)
	assert.Equal(t, "pepe.rone@example.com", identity.Email)
}

func TestClientRejectsIncompleteGrant(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"identity":` + identityJSON + `}`},
		{"missing identity", `{"token":"granted-token"}`},
		{"not json", `<html>proxy error</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newIdentityAPI(t, map[string]http.Handler{
				"/auth/login": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					jsonResponse(w, http.StatusOK, tt.body)
				}),
			})

			client := session.NewClient(srv.URL, nil)
			_, err := client.Login(context.Background(), session.LoginRequest{
				Identifier: "pepe.rone@example.com",
				Password:   "some_secret_word",
			})

			require.Error(t, err)
			assert.True(t, session.IsServerFailure(err))
		})
	}
}

func TestClientFinalizeRecoveryTokenStatuses(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusConflict, http.StatusGone} {
		srv := newIdentityAPI(t, map[string]http.Handler{
			"/auth/password-reset/finalize": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				jsonResponse(w, status, `{"message":"recovery token is expired or invalid"}`)
			}),
		})

		client := session.NewClient(srv.URL, nil)
		err := client.FinalizeRecovery(context.Background(), session.RecoveryFinalize{
			Token:    "350399bc-c095-4bdc-a59c-3352d44848e4",
			Password: "some_secret_word",
		})

		require.Error(t, err)
		assert.True(t, session.IsTokenInvalid(err), "status %d should map to an invalid token", status)
	}
}

func TestClientWithRoutes(t *testing.T) {
	var gotPath string
	srv := newIdentityAPI(t, map[string]http.Handler{
		"/api/v2/sessions": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			jsonResponse(w, http.StatusOK, grantJSON)
		}),
	})

	routes := session.Routes{
		Identity:         "/api/v2/me",
		Login:            "/api/v2/sessions",
		Register:         "/api/v2/accounts",
		Logout:           "/api/v2/sessions/current",
		Profile:          "/api/v2/profile",
		RecoveryRequest:  "/api/v2/recovery",
		RecoveryFinalize: "/api/v2/recovery/finalize",
	}

	client := session.NewClient(srv.URL, nil, session.WithRoutes(routes))
	_, err := client.Login(context.Background(), session.LoginRequest{
		Identifier: "pepe.rone@example.com",
		Password:   "some_secret_word",
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/v2/sessions", gotPath)
}
