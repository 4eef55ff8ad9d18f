package session

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizeRecoveryMessage struct {
	Token      string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Recovery token from the emailed link."`
	Password   string `json:"password" example:"some_secret_word" doc:"New password."`
	OnResponse func(resp *FinalizeRecoveryResponse)
}

func (m FinalizeRecoveryMessage) Type() string { return "session.recovery.finalize" }

type FinalizeRecoveryResponse struct {
	State   RecoveryState
	Success bool
}

type FinalizeRecoveryHandler struct {
	flow *PasswordResetFlow
}

// NewFinalizeRecoveryHandler creates a handler driving the given phase-two flow.
func NewFinalizeRecoveryHandler(flow *PasswordResetFlow) *FinalizeRecoveryHandler {
	return &FinalizeRecoveryHandler{flow: flow}
}

func (h *FinalizeRecoveryHandler) Execute(ctx context.Context, event FinalizeRecoveryMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during recovery finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizeRecoveryHandler) execute(ctx context.Context, event FinalizeRecoveryMessage) error {
	err := h.flow.SubmitNewSecret(ctx, event.Token, event.Password)

	if event.OnResponse != nil {
		event.OnResponse(&FinalizeRecoveryResponse{
			State:   h.flow.State(),
			Success: err == nil,
		})
	}

	return err
}
