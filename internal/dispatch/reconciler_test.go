package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
)

func TestReconcilePatchEmailSent(t *testing.T) {
	patch := ReconcilePatch(Outcome{Channel: outbox.ChannelEmail, Sent: true})

	require.NotNil(t, patch.InviteSentEmail)
	assert.True(t, *patch.InviteSentEmail)
	require.NotNil(t, patch.InviteSent)
	assert.True(t, *patch.InviteSent)
	assert.Nil(t, patch.InviteWhatsAppStatus)
}

func TestReconcilePatchEmailFailureIsNoop(t *testing.T) {
	patch := ReconcilePatch(Outcome{Channel: outbox.ChannelEmail, Reason: "smtp timeout"})

	assert.Nil(t, patch.InviteSentEmail)
	assert.Nil(t, patch.InviteSent)
}

func TestReconcilePatchWhatsAppSent(t *testing.T) {
	at := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	patch := ReconcilePatch(Outcome{
		Channel:   outbox.ChannelWhatsApp,
		Sent:      true,
		MessageID: "wamid.1",
		At:        at,
	})

	require.NotNil(t, patch.InviteWhatsAppStatus)
	assert.Equal(t, guest.WhatsAppSent, *patch.InviteWhatsAppStatus)
	require.NotNil(t, patch.InviteWhatsAppSentAt)
	assert.Equal(t, at, *patch.InviteWhatsAppSentAt)
	require.NotNil(t, patch.InviteWhatsAppMessageID)
	assert.Equal(t, "wamid.1", *patch.InviteWhatsAppMessageID)
	assert.True(t, patch.ClearWhatsAppLastError)
	require.NotNil(t, patch.InviteSent)
	assert.True(t, *patch.InviteSent)
	assert.Nil(t, patch.InviteWhatsAppFailedAt)
}

func TestReconcilePatchWhatsAppFailed(t *testing.T) {
	patch := ReconcilePatch(Outcome{
		Channel: outbox.ChannelWhatsApp,
		Reason:  ReasonNoWhatsAppConfig,
	})

	require.NotNil(t, patch.InviteWhatsAppStatus)
	assert.Equal(t, guest.WhatsAppFailed, *patch.InviteWhatsAppStatus)
	require.NotNil(t, patch.InviteWhatsAppLastError)
	assert.Equal(t, ReasonNoWhatsAppConfig, *patch.InviteWhatsAppLastError)
	assert.NotNil(t, patch.InviteWhatsAppFailedAt)
	// A failure never flips the combined invite flag.
	assert.Nil(t, patch.InviteSent)
	assert.False(t, patch.ClearWhatsAppLastError)
}

func TestReconcilePatchSMSOnlyMovesCombinedFlag(t *testing.T) {
	sent := ReconcilePatch(Outcome{Channel: outbox.ChannelSMS, Sent: true})
	require.NotNil(t, sent.InviteSent)
	assert.True(t, *sent.InviteSent)
	assert.Nil(t, sent.InviteWhatsAppStatus)
	assert.Nil(t, sent.InviteSentEmail)

	failed := ReconcilePatch(Outcome{Channel: outbox.ChannelSMS, Reason: "gateway 500"})
	assert.Nil(t, failed.InviteSent)
}

func TestSendingPatch(t *testing.T) {
	patch := SendingPatch()
	require.NotNil(t, patch.InviteWhatsAppStatus)
	assert.Equal(t, guest.WhatsAppSending, *patch.InviteWhatsAppStatus)
}
