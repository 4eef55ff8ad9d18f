package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselane/go-session"
)

func TestInitializeRecoveryHandler(t *testing.T) {
	client := recoveryClient(t)
	flow := session.NewRecoveryRequestFlow(client)
	handler := session.NewInitializeRecoveryHandler(flow)

	var response *session.InitializeRecoveryResponse
	msg := session.InitializeRecoveryMessage{
		Identifier: "pepe.rone@example.com",
		OnResponse: func(resp *session.InitializeRecoveryResponse) {
			response = resp
		},
	}

	assert.Equal(t, "session.recovery.initialize", msg.Type())

	err := handler.Execute(context.Background(), msg)
	require.NoError(t, err)

	require.NotNil(t, response)
	assert.True(t, response.Success)
	assert.Equal(t, session.RecoveryStateRequestSubmitted, response.State)
}

func TestInitializeRecoveryHandlerReportsFailure(t *testing.T) {
	client := recoveryClient(t)
	flow := session.NewRecoveryRequestFlow(client)
	handler := session.NewInitializeRecoveryHandler(flow)

	var response *session.InitializeRecoveryResponse
	err := handler.Execute(context.Background(), session.InitializeRecoveryMessage{
		Identifier: "not-an-email",
		OnResponse: func(resp *session.InitializeRecoveryResponse) {
			response = resp
		},
	})

	require.Error(t, err)
	require.NotNil(t, response)
	assert.False(t, response.Success)
	assert.Equal(t, session.RecoveryStateRequestPending, response.State)
}

func TestInitializeRecoveryHandlerCancelledContext(t *testing.T) {
	client := recoveryClient(t)
	handler := session.NewInitializeRecoveryHandler(session.NewRecoveryRequestFlow(client))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, session.InitializeRecoveryMessage{Identifier: "pepe.rone@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFinalizeRecoveryHandler(t *testing.T) {
	client := recoveryClient(t)
	flow := session.NewPasswordResetFlow(client)
	handler := session.NewFinalizeRecoveryHandler(flow)

	var response *session.FinalizeRecoveryResponse
	msg := session.FinalizeRecoveryMessage{
		Token:    "350399bc-c095-4bdc-a59c-3352d44848e4",
		Password: "new_secret_word",
		OnResponse: func(resp *session.FinalizeRecoveryResponse) {
			response = resp
		},
	}

	assert.Equal(t, "session.recovery.finalize", msg.Type())

	err := handler.Execute(context.Background(), msg)
	require.NoError(t, err)

	require.NotNil(t, response)
	assert.True(t, response.Success)
	assert.Equal(t, session.RecoveryStateResetSubmitted, response.State)
}

func TestFinalizeRecoveryHandlerCancelledContext(t *testing.T) {
	client := recoveryClient(t)
	handler := session.NewFinalizeRecoveryHandler(session.NewPasswordResetFlow(client))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, session.FinalizeRecoveryMessage{
		Token:    "350399bc-c095-4bdc-a59c-3352d44848e4",
		Password: "new_secret_word",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
