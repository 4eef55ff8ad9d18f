package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// Routes holds the endpoint paths consumed by the subsystem.
type Routes struct {
	Identity         string
	Login            string
	Register         string
	Logout           string
	Profile          string
	RecoveryRequest  string
	RecoveryFinalize string
}

func defaultRoutes() Routes {
	return Routes{
		Identity:         "/auth/me",
		Login:            "/auth/login",
		Register:         "/auth/register",
		Logout:           "/auth/logout",
		Profile:          "/auth/profile",
		RecoveryRequest:  "/auth/password-reset",
		RecoveryFinalize: "/auth/password-reset/finalize",
	}
}

// Client is a typed wrapper over the identity endpoints of the marketplace
// API. It classifies failures into the package error taxonomy and never
// touches session state; that is the Manager's job.
type Client struct {
	baseURL string
	http    *http.Client
	routes  Routes
	logger  Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithRoutes overrides the default endpoint paths.
func WithRoutes(routes Routes) ClientOption {
	return func(c *Client) {
		c.routes = routes
	}
}

// WithClientLogger overrides the logger used by the client.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client for the given base URL. Pass an http.Client
// built with NewHTTPClient to get transparent bearer propagation; a nil
// httpClient falls back to a plain one.
func NewClient(baseURL string, httpClient *http.Client, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		routes:  defaultRoutes(),
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// Registration is the new-account draft submitted on register.
type Registration struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
	Phone       string `json:"phone_number,omitempty"`
}

// Validate will run validation rules
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&r.Role, validation.Required, validation.In(RoleStudent, RoleCreator, RoleAdmin)),
		validation.Field(&r.Phone, validation.By(validPhone)),
	)
}

// ProfileUpdate carries partial profile fields; empty fields are left
// untouched server side.
type ProfileUpdate struct {
	DisplayName    string `json:"display_name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone_number,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

// Validate will run validation rules
func (r ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, validation.By(validPhone)),
	)
}

func validPhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return err
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

type apiError struct {
	Message string `json:"message"`
}

// ResolveIdentity exchanges a stored token for the identity it belongs to.
// A 401 means the token is expired or invalid.
func (c *Client) ResolveIdentity(ctx context.Context, token string) (*Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, c.routes.Identity, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, goerrors.New(readMessage(resp, "session token is expired or invalid"), goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenInvalid)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.failure(resp)
	}

	identity := &Identity{}
	if err := decodeJSON(resp, identity); err != nil {
		return nil, err
	}

	return identity, nil
}

// Login submits credentials to the token issuer.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenGrant, error) {
	resp, err := c.do(ctx, http.MethodPost, c.routes.Login, "", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, goerrors.New(readMessage(resp, "invalid identifier or password"), goerrors.CategoryAuth).
			WithTextCode(TextCodeInvalidCredentials)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.failure(resp)
	}

	return decodeGrant(resp)
}

// Register submits a new-account draft. A successful registration immediately
// establishes a session.
func (c *Client) Register(ctx context.Context, req Registration) (*TokenGrant, error) {
	resp, err := c.do(ctx, http.MethodPost, c.routes.Register, "", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.failure(resp)
	}

	return decodeGrant(resp)
}

// Logout tells the server the session is ending. The response body is
// ignored; callers are expected to treat any failure as best-effort.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodPost, c.routes.Logout, token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.failure(resp)
	}

	return nil
}

// UpdateProfile submits partial profile fields and returns the server's
// canonical identity record.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch ProfileUpdate) (*Identity, error) {
	resp, err := c.do(ctx, http.MethodPatch, c.routes.Profile, token, patch)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, goerrors.New(readMessage(resp, "session token is expired or invalid"), goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenInvalid)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.failure(resp)
	}

	identity := &Identity{}
	if err := decodeJSON(resp, identity); err != nil {
		return nil, err
	}

	return identity, nil
}

// RequestRecovery starts the credential-recovery lifecycle. Servers respond
// uniformly regardless of account existence, so a 2xx only means the request
// was accepted.
func (c *Client) RequestRecovery(ctx context.Context, req RecoveryRequest) error {
	resp, err := c.do(ctx, http.MethodPost, c.routes.RecoveryRequest, "", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.failure(resp)
	}

	return nil
}

// FinalizeRecovery consumes a single-use recovery token together with the new
// secret. Expired, unknown, or already-used tokens are reported as
// TokenExpiredOrInvalid.
func (c *Client) FinalizeRecovery(ctx context.Context, req RecoveryFinalize) error {
	resp, err := c.do(ctx, http.MethodPost, c.routes.RecoveryFinalize, "", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusConflict, http.StatusGone:
		return goerrors.New(readMessage(resp, "recovery token is expired or invalid"), goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenInvalid)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.failure(resp)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request payload")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request to %s failed: %v", path, err)
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "could not reach the identity service").
			WithTextCode(TextCodeNetworkFailure)
	}

	return resp, nil
}

// failure maps a non-2xx response into the error taxonomy, keeping the
// server's human-readable message when one is present.
func (c *Client) failure(resp *http.Response) error {
	msg := readMessage(resp, fmt.Sprintf("request failed with status %d", resp.StatusCode))

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return goerrors.New(msg, goerrors.CategoryInternal).
			WithTextCode(TextCodeServerFailure)
	case resp.StatusCode == http.StatusNotFound:
		return goerrors.New(msg, goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	case resp.StatusCode == http.StatusConflict:
		return goerrors.New(msg, goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	default:
		return goerrors.New(msg, goerrors.CategoryValidation).
			WithTextCode(TextCodeValidationFailure).
			WithCode(goerrors.CodeBadRequest)
	}
}

func readMessage(resp *http.Response, fallback string) string {
	payload := apiError{}
	if body, err := io.ReadAll(resp.Body); err == nil {
		_ = json.Unmarshal(body, &payload)
	}
	if payload.Message != "" {
		return payload.Message
	}
	return fallback
}

func decodeGrant(resp *http.Response) (*TokenGrant, error) {
	grant := &TokenGrant{}
	if err := decodeJSON(resp, grant); err != nil {
		return nil, err
	}

	if grant.Token == "" || grant.Identity == nil {
		return nil, goerrors.New("token grant is missing token or identity", goerrors.CategoryInternal).
			WithTextCode(TextCodeServerFailure)
	}

	return grant, nil
}

func decodeJSON(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read response").
			WithTextCode(TextCodeNetworkFailure)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid response from identity service").
			WithTextCode(TextCodeServerFailure)
	}

	return nil
}
