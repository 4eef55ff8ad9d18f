package session

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RecoveryState is a phase of the credential-recovery lifecycle. The two
// phases are independent: phase two starts fresh from the token carried by
// the out-of-band link, it is not reachable from phase one in memory.
type RecoveryState string

const (
	// RecoveryStateRequestPending is phase one before submission
	RecoveryStateRequestPending RecoveryState = "request-pending"
	// RecoveryStateRequestSubmitted means the reset email was requested
	RecoveryStateRequestSubmitted RecoveryState = "request-submitted"
	// RecoveryStateResetPending is phase two before submission
	RecoveryStateResetPending RecoveryState = "reset-pending"
	// RecoveryStateResetSubmitted means the new secret was accepted
	RecoveryStateResetSubmitted RecoveryState = "reset-submitted"
)

// TextCodeInvalidRecoveryTransition marks a recovery state change that is not
// allowed.
const TextCodeInvalidRecoveryTransition = "INVALID_RECOVERY_TRANSITION"

// IsInvalidRecoveryTransition reports whether err was raised by a disallowed
// recovery state change.
func IsInvalidRecoveryTransition(err error) bool {
	return hasTextCode(err, TextCodeInvalidRecoveryTransition)
}

var recoveryTransitions = map[RecoveryState]map[RecoveryState]struct{}{
	RecoveryStateRequestPending: {
		RecoveryStateRequestSubmitted: {},
	},
	RecoveryStateResetPending: {
		RecoveryStateResetSubmitted: {},
	},
}

func advanceRecovery(from, to RecoveryState) error {
	if allowed, ok := recoveryTransitions[from]; ok {
		if _, exists := allowed[to]; exists {
			return nil
		}
	}

	return goerrors.New("invalid recovery state transition", goerrors.CategoryConflict).
		WithTextCode(TextCodeInvalidRecoveryTransition).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{
			"from": from,
			"to":   to,
		})
}

// RecoveryRequest is the phase-one payload.
type RecoveryRequest struct {
	Identifier string `json:"identifier"`
}

// Validate will run validation rules
func (r RecoveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required, is.Email),
	)
}

// RecoveryFinalize is the phase-two payload: the single-use token extracted
// from the route plus the new secret.
type RecoveryFinalize struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RecoveryFinalize) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, is.UUID),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
	)
}

// RecoveryRequestFlow is phase one of the recovery lifecycle: asking the
// server to email a reset link.
type RecoveryRequestFlow struct {
	client   *Client
	state    RecoveryState
	notifier Notifier
	logger   Logger
	activity ActivitySink
}

// NewRecoveryRequestFlow creates a phase-one flow in RequestPending.
func NewRecoveryRequestFlow(client *Client) *RecoveryRequestFlow {
	return &RecoveryRequestFlow{
		client:   client,
		state:    RecoveryStateRequestPending,
		notifier: noopNotifier{},
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

// WithNotifier sets the sink for transient user-facing notifications.
func (f *RecoveryRequestFlow) WithNotifier(notifier Notifier) *RecoveryRequestFlow {
	f.notifier = normalizeNotifier(notifier)
	return f
}

// WithLogger overrides the logger used by the flow.
func (f *RecoveryRequestFlow) WithLogger(logger Logger) *RecoveryRequestFlow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// WithActivitySink configures an ActivitySink for emitting recovery events.
func (f *RecoveryRequestFlow) WithActivitySink(sink ActivitySink) *RecoveryRequestFlow {
	f.activity = normalizeActivitySink(sink)
	return f
}

// State returns the current phase-one state.
func (f *RecoveryRequestFlow) State() RecoveryState {
	return f.state
}

// RequestReset submits the identity hint. Apparent success transitions to
// RequestSubmitted with a confirmation that is identical whether or not an
// account exists, so the flow leaks no enumeration signal. Failure keeps the
// flow in RequestPending with the reason surfaced.
func (f *RecoveryRequestFlow) RequestReset(ctx context.Context, identifier string) error {
	req := RecoveryRequest{Identifier: identifier}
	if err := req.Validate(); err != nil {
		failure := validationFailure(err, "invalid recovery request")
		f.notifier.Failure(userMessage(failure))
		return failure
	}

	if err := f.client.RequestRecovery(ctx, req); err != nil {
		f.logger.Info("recovery request failed: %v", err)
		f.notifier.Failure(userMessage(err))
		return err
	}

	if err := advanceRecovery(f.state, RecoveryStateRequestSubmitted); err != nil {
		return err
	}
	f.state = RecoveryStateRequestSubmitted

	recordRecoveryEvent(ctx, f.activity, f.logger, ActivityEventRecoveryRequested, map[string]any{
		"identifier": identifier,
	})

	f.notifier.Success("If an account exists for that address, a recovery email is on its way.")
	return nil
}

// PasswordResetFlow is phase two of the recovery lifecycle: consuming the
// emailed token and setting a new secret.
type PasswordResetFlow struct {
	client    *Client
	state     RecoveryState
	notifier  Notifier
	navigator Navigator
	logger    Logger
	activity  ActivitySink
}

// NewPasswordResetFlow creates a phase-two flow in ResetPending.
func NewPasswordResetFlow(client *Client) *PasswordResetFlow {
	return &PasswordResetFlow{
		client:    client,
		state:     RecoveryStateResetPending,
		notifier:  noopNotifier{},
		navigator: noopNavigator{},
		logger:    defLogger{},
		activity:  noopActivitySink{},
	}
}

// WithNotifier sets the sink for transient user-facing notifications.
func (f *PasswordResetFlow) WithNotifier(notifier Notifier) *PasswordResetFlow {
	f.notifier = normalizeNotifier(notifier)
	return f
}

// WithNavigator sets the Navigator used for the post-reset redirect.
func (f *PasswordResetFlow) WithNavigator(navigator Navigator) *PasswordResetFlow {
	f.navigator = normalizeNavigator(navigator)
	return f
}

// WithLogger overrides the logger used by the flow.
func (f *PasswordResetFlow) WithLogger(logger Logger) *PasswordResetFlow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// WithActivitySink configures an ActivitySink for emitting recovery events.
func (f *PasswordResetFlow) WithActivitySink(sink ActivitySink) *PasswordResetFlow {
	f.activity = normalizeActivitySink(sink)
	return f
}

// State returns the current phase-two state.
func (f *PasswordResetFlow) State() RecoveryState {
	return f.state
}

// SubmitNewSecret submits the recovery token plus the new secret. Success
// transitions to ResetSubmitted and redirects toward login. Failure
// (expired/invalid/used token, policy-rejected secret) keeps the flow in
// ResetPending; the token is single-use server side, so an expired token
// means starting over from phase one.
func (f *PasswordResetFlow) SubmitNewSecret(ctx context.Context, token, secret string) error {
	req := RecoveryFinalize{Token: token, Password: secret}
	if err := req.Validate(); err != nil {
		failure := validationFailure(err, "invalid password reset payload")
		f.notifier.Failure(userMessage(failure))
		return failure
	}

	if err := f.client.FinalizeRecovery(ctx, req); err != nil {
		f.logger.Info("password reset failed: %v", err)
		f.notifier.Failure(userMessage(err))
		return err
	}

	if err := advanceRecovery(f.state, RecoveryStateResetSubmitted); err != nil {
		return err
	}
	f.state = RecoveryStateResetSubmitted

	recordRecoveryEvent(ctx, f.activity, f.logger, ActivityEventRecoveryFinalized, nil)

	f.notifier.Success("Your password was changed. Sign in with your new password.")
	f.navigator.NavigateTo(DestinationLogin)
	return nil
}

func recordRecoveryEvent(ctx context.Context, sink ActivitySink, logger Logger, eventType ActivityEventType, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{Type: "unknown"},
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		logger.Warn("activity sink record error: %v", err)
	}
}

// ExtractRecoveryToken pulls the recovery token out of a
// /reset-password/{token} route path. The token is the only state the client
// holds before phase two is submitted.
func ExtractRecoveryToken(path string) (string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "reset-password" || parts[1] == "" {
		return "", goerrors.New("route does not carry a recovery token", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	token := parts[1]
	if _, err := uuid.Parse(token); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed recovery token").
			WithCode(goerrors.CodeBadRequest)
	}

	return token, nil
}
