package session

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-print"
)

// Manager is the single source of truth for session state. It owns the
// in-memory identity and the persisted token slot; every identity-affecting
// operation goes through it, and readers (BearerTransport, role-gated UI)
// never write.
//
// Operations are serialized with an internal mutex, so two overlapping Login
// calls cannot leave the identity/token pair partially consistent.
type Manager struct {
	mu        sync.Mutex
	client    *Client
	store     TokenStore
	identity  *Identity
	state     LoadingState
	logger    Logger
	notifier  Notifier
	navigator Navigator
	activity  ActivitySink
	debug     bool
}

// NewManager creates a Manager backed by the given API client and token slot.
func NewManager(client *Client, store TokenStore) *Manager {
	if client == nil {
		panic("session: Manager requires a Client")
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}

	return &Manager{
		client:    client,
		store:     store,
		state:     StateInitializing,
		logger:    defLogger{},
		notifier:  noopNotifier{},
		navigator: noopNavigator{},
		activity:  noopActivitySink{},
	}
}

// WithLogger overrides the logger used by the manager.
func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithNotifier sets the sink for transient user-facing notifications.
func (m *Manager) WithNotifier(notifier Notifier) *Manager {
	m.notifier = normalizeNotifier(notifier)
	return m
}

// WithNavigator sets the Navigator used for the post-logout transition.
func (m *Manager) WithNavigator(navigator Navigator) *Manager {
	m.navigator = normalizeNavigator(navigator)
	return m
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (m *Manager) WithActivitySink(sink ActivitySink) *Manager {
	m.activity = normalizeActivitySink(sink)
	return m
}

// WithDebug enables payload dumps on the debug log level.
func (m *Manager) WithDebug(debug bool) *Manager {
	m.debug = debug
	return m
}

// Initialize restores the session from the persisted token, if any. It runs
// once at process start, never returns an error, and always leaves the
// manager in StateReady so dependent UI is not stuck loading. An invalid or
// unreachable token clears the persisted slot and leaves the identity absent.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	defer func() {
		m.state = StateReady
		m.mu.Unlock()
	}()

	token, err := m.store.Get()
	if err != nil {
		m.logger.Warn("could not read persisted token: %v", err)
		return
	}

	if token == "" {
		return
	}

	identity, err := m.client.ResolveIdentity(ctx, token)
	if err != nil {
		m.logger.Info("persisted token rejected, clearing slot: %v", err)
		if clearErr := m.store.Clear(); clearErr != nil {
			m.logger.Warn("failed to clear persisted token: %v", clearErr)
		}
		m.record(ctx, ActivityEventSessionRestoreFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"error": err.Error(),
		})
		return
	}

	m.identity = identity
	m.record(ctx, ActivityEventSessionRestored, actorFor(identity), identity.ID, nil)
}

// Login submits credentials to the token issuer. On success the returned
// token is persisted and the identity is set; on failure no state is touched
// and the error is propagated after surfacing a notification. The identity is
// returned so the caller can dispatch role-based routing.
func (m *Manager) Login(ctx context.Context, identifier, password string) (*Identity, error) {
	req := LoginRequest{Identifier: identifier, Password: password}
	if err := req.Validate(); err != nil {
		failure := validationFailure(err, "invalid login payload")
		m.notifier.Failure(userMessage(failure))
		return nil, failure
	}

	if m.debug {
		redacted := req
		redacted.Password = "[redacted]"
		m.logger.Debug("login payload: %s", print.MaybePrettyJSON(redacted))
	}

	grant, err := m.client.Login(ctx, req)
	if err != nil {
		m.notifier.Failure(userMessage(err))
		m.record(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if err := m.establish(grant); err != nil {
		m.notifier.Failure(userMessage(err))
		return nil, err
	}

	m.record(ctx, ActivityEventLoginSuccess, actorFor(grant.Identity), grant.Identity.ID, map[string]any{
		"identifier": identifier,
	})

	return grant.Identity, nil
}

// Register submits a new-account draft. A successful registration
// establishes a session immediately, with the same contract as Login.
func (m *Manager) Register(ctx context.Context, draft Registration) (*Identity, error) {
	if err := draft.Validate(); err != nil {
		failure := validationFailure(err, "invalid registration payload")
		m.notifier.Failure(userMessage(failure))
		return nil, failure
	}

	if m.debug {
		redacted := draft
		redacted.Password = "[redacted]"
		m.logger.Debug("registration payload: %s", print.MaybePrettyJSON(redacted))
	}

	grant, err := m.client.Register(ctx, draft)
	if err != nil {
		m.notifier.Failure(userMessage(err))
		m.record(ctx, ActivityEventRegisterFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": draft.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	if err := m.establish(grant); err != nil {
		m.notifier.Failure(userMessage(err))
		return nil, err
	}

	m.record(ctx, ActivityEventRegisterSuccess, actorFor(grant.Identity), grant.Identity.ID, map[string]any{
		"email": draft.Email,
	})

	return grant.Identity, nil
}

// Logout ends the session. The server-side notify call is best-effort: its
// failure is logged and recorded for operational visibility but never
// surfaced to the caller. Local teardown (identity and persisted token) is
// unconditional, and the navigator is sent to the public landing surface.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()

	token, err := m.store.Get()
	if err != nil {
		m.logger.Warn("could not read persisted token during logout: %v", err)
	}

	userID := ""
	if m.identity != nil {
		userID = m.identity.ID
	}

	if token != "" {
		if err := m.client.Logout(ctx, token); err != nil {
			m.logger.Warn("logout notify failed: %v", err)
			m.record(ctx, ActivityEventLogoutNotifyFailure, ActorRef{ID: userID, Type: "user"}, userID, map[string]any{
				"error": err.Error(),
			})
		}
	}

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted token: %v", err)
	}
	m.identity = nil
	m.mu.Unlock()

	m.record(ctx, ActivityEventLogout, ActorRef{ID: userID, Type: "user"}, userID, nil)
	m.navigator.NavigateTo(DestinationLanding)
}

// UpdateProfile submits partial profile fields. On success the identity is
// replaced with the server's canonical record and a success notification is
// surfaced; on failure state is untouched, a failure notification is
// surfaced, and the error is re-raised for caller-level handling.
func (m *Manager) UpdateProfile(ctx context.Context, patch ProfileUpdate) (*Identity, error) {
	if err := patch.Validate(); err != nil {
		failure := validationFailure(err, "invalid profile payload")
		m.notifier.Failure(userMessage(failure))
		return nil, failure
	}

	m.mu.Lock()
	token, err := m.store.Get()
	m.mu.Unlock()
	if err != nil || token == "" {
		m.notifier.Failure(userMessage(ErrNoSession))
		return nil, ErrNoSession
	}

	updated, err := m.client.UpdateProfile(ctx, token, patch)
	if err != nil {
		m.notifier.Failure(userMessage(err))
		return nil, err
	}

	m.mu.Lock()
	m.identity = updated
	m.mu.Unlock()

	m.notifier.Success("Profile updated.")
	m.record(ctx, ActivityEventProfileUpdated, actorFor(updated), updated.ID, nil)

	return updated, nil
}

// Identity returns a copy of the current identity, or nil when
// unauthenticated.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == nil {
		return nil
	}

	copied := *m.identity
	return &copied
}

// Token returns the persisted bearer token, or "" when absent.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.store.Get()
	if err != nil {
		m.logger.Warn("could not read persisted token: %v", err)
		return ""
	}
	return token
}

// State reports whether initialization has completed.
func (m *Manager) State() LoadingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether an identity is currently resolved.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity != nil
}

// establish persists the granted token and sets the identity. The token is
// written first so the identity-present-implies-token-present invariant holds
// at every observable point; a store failure leaves state untouched.
func (m *Manager) establish(grant *TokenGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(grant.Token); err != nil {
		m.logger.Error("failed to persist session token: %v", err)
		return err
	}

	m.identity = grant.Identity
	return nil
}

func (m *Manager) record(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(m.activity).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}

func actorFor(identity *Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID,
		Type: "user",
	}
}
