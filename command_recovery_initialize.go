package session

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type InitializeRecoveryMessage struct {
	Identifier string `json:"identifier" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializeRecoveryResponse)
}

func (m InitializeRecoveryMessage) Type() string { return "session.recovery.initialize" }

type InitializeRecoveryResponse struct {
	State   RecoveryState
	Success bool
}

type InitializeRecoveryHandler struct {
	flow *RecoveryRequestFlow
}

// NewInitializeRecoveryHandler creates a handler driving the given phase-one flow.
func NewInitializeRecoveryHandler(flow *RecoveryRequestFlow) *InitializeRecoveryHandler {
	return &InitializeRecoveryHandler{flow: flow}
}

func (h *InitializeRecoveryHandler) Execute(ctx context.Context, event InitializeRecoveryMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during recovery initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializeRecoveryHandler) execute(ctx context.Context, event InitializeRecoveryMessage) error {
	err := h.flow.RequestReset(ctx, event.Identifier)

	if event.OnResponse != nil {
		event.OnResponse(&InitializeRecoveryResponse{
			State:   h.flow.State(),
			Success: err == nil,
		})
	}

	return err
}
