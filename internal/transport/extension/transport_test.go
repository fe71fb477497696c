package extension_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/transport"
	"dappkit/internal/transport/extension"
)

func interaction(id string) domain.WalletInteraction {
	return domain.WalletInteraction{
		InteractionID: domain.InteractionID(id),
		Metadata: domain.Metadata{
			Version:               domaintypes.InteractionVersion,
			NetworkID:             domaintypes.NetworkStokenet,
			DAppDefinitionAddress: "account_tdx_2_demo",
			Origin:                "https://demo.example",
		},
		Items: domain.InteractionItems{
			Discriminator: domaintypes.ItemsTransaction,
			Send:          &domaintypes.SendTransactionItem{TransactionManifest: "CALL_METHOD", Version: 1},
		},
	}
}

type event struct {
	EventType     domain.LifecycleEvent `json:"eventType"`
	InteractionID domain.InteractionID  `json:"interactionId"`
}

func newTransport(t *testing.T, cfg extension.Config) (*extension.Transport, *extension.ChannelBridge) {
	t.Helper()
	bridge := extension.NewChannelBridge(8)
	tr := extension.New(bridge, &transport.Env{}, extension.WithConfig(cfg))
	t.Cleanup(tr.Destroy)
	return tr, bridge
}

func TestSend_MissingExtension(t *testing.T) {
	tr, _ := newTransport(t, extension.Config{MissingExtensionTimeout: 20 * time.Millisecond})

	_, err := tr.Send(context.Background(), interaction("i1"), domain.CallbackFns{})
	var sdkErr *domaintypes.SdkError
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, domaintypes.ErrorMissingExtension, sdkErr.Type)
	assert.Equal(t, domain.InteractionID("i1"), sdkErr.InteractionID)
}

func TestSend_ForwardsEventsThenReturnsResponse(t *testing.T) {
	tr, bridge := newTransport(t, extension.Config{MissingExtensionTimeout: 200 * time.Millisecond})

	go func() {
		msg := <-bridge.Sent()
		id := msg.Interaction.InteractionID
		_ = bridge.Deliver(event{EventType: domaintypes.EventReceivedByExtension, InteractionID: id})
		_ = bridge.Deliver(event{EventType: domaintypes.EventReceivedByWallet, InteractionID: "other"})
		_ = bridge.Deliver(event{EventType: domaintypes.EventReceivedByWallet, InteractionID: id})
		_ = bridge.Deliver(domain.WalletInteractionResponse{
			Discriminator: domaintypes.ResponseSuccess,
			InteractionID: id,
			Items: &domain.ResponseItems{
				Discriminator: domaintypes.ResponseItemsTransaction,
				Send:          &domaintypes.SendTransactionResponseItem{TransactionIntentHash: "txid_1"},
			},
		})
	}()

	var events []domain.LifecycleEvent
	var control domain.RequestControl
	resp, err := tr.Send(context.Background(), interaction("i1"), domain.CallbackFns{
		EventCallback:  func(e domain.LifecycleEvent) { events = append(events, e) },
		RequestControl: func(c domain.RequestControl) { control = c },
	})
	require.NoError(t, err)
	assert.Equal(t, "txid_1", resp.Items.Send.TransactionIntentHash)
	assert.Equal(t, []domain.LifecycleEvent{
		domaintypes.EventReceivedByExtension,
		domaintypes.EventReceivedByWallet,
	}, events)
	require.NotNil(t, control)
	assert.Equal(t, domain.InteractionID("i1"), control.Interaction().InteractionID)
}

func TestSend_SlowCallbackKeepsResponseUnderLoad(t *testing.T) {
	tr, bridge := newTransport(t, extension.Config{MissingExtensionTimeout: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	release := make(chan struct{})
	type result struct {
		resp   domain.WalletInteractionResponse
		err    error
		events int
	}
	done := make(chan result, 1)
	go func() {
		events := 0
		resp, err := tr.Send(ctx, interaction("i1"), domain.CallbackFns{
			EventCallback: func(domain.LifecycleEvent) {
				events++
				if events == 1 {
					<-release
				}
			},
		})
		done <- result{resp, err, events}
	}()

	msg := <-bridge.Sent()
	id := msg.Interaction.InteractionID
	require.NoError(t, bridge.Deliver(event{EventType: domaintypes.EventReceivedByExtension, InteractionID: id}))
	for i := 0; i < 40; i++ {
		other := domain.InteractionID(fmt.Sprintf("other-%d", i))
		require.NoError(t, bridge.Deliver(event{EventType: domaintypes.EventReceivedByWallet, InteractionID: other}))
		if i%10 == 0 {
			require.NoError(t, bridge.Deliver(event{EventType: domaintypes.EventReceivedByWallet, InteractionID: id}))
		}
	}
	require.NoError(t, bridge.Deliver(domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseSuccess,
		InteractionID: id,
		Items: &domain.ResponseItems{
			Discriminator: domaintypes.ResponseItemsTransaction,
			Send:          &domaintypes.SendTransactionResponseItem{TransactionIntentHash: "txid_busy"},
		},
	}))
	// push the response well past the bridge buffer before the callback returns
	for i := 0; i < 20; i++ {
		require.NoError(t, bridge.Deliver(event{EventType: domaintypes.EventReceivedByWallet, InteractionID: "late"}))
	}
	close(release)

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, "txid_busy", r.resp.Items.Send.TransactionIntentHash)
	assert.Equal(t, 5, r.events)
}

func TestCancel_AcknowledgedEndsSend(t *testing.T) {
	tr, bridge := newTransport(t, extension.Config{})

	controls := make(chan domain.RequestControl, 1)
	errs := make(chan error, 1)
	go func() {
		_, err := tr.Send(context.Background(), interaction("i1"), domain.CallbackFns{
			RequestControl: func(c domain.RequestControl) { controls <- c },
		})
		errs <- err
	}()

	msg := <-bridge.Sent()
	require.Equal(t, extension.MsgWalletInteraction, msg.Discriminator)
	require.NoError(t, bridge.Deliver(event{EventType: domaintypes.EventReceivedByExtension, InteractionID: "i1"}))

	control := <-controls
	acked := make(chan bool, 1)
	go func() {
		ok, _ := control.Cancel(context.Background())
		acked <- ok
	}()

	cancelMsg := <-bridge.Sent()
	assert.Equal(t, extension.MsgCancelWalletInteraction, cancelMsg.Discriminator)
	assert.Equal(t, domain.InteractionID("i1"), cancelMsg.InteractionID)
	require.NoError(t, bridge.Deliver(event{EventType: domaintypes.EventRequestCancelSuccess, InteractionID: "i1"}))

	assert.True(t, <-acked)
	err := <-errs
	assert.True(t, errors.Is(err, domaintypes.NewSdkError(domaintypes.ErrorCanceledByUser, "", "")))
}

func TestCheckStatus_UpdatesSubjects(t *testing.T) {
	tr, bridge := newTransport(t, extension.Config{StatusTimeout: time.Second})

	go func() {
		msg := <-bridge.Sent()
		_ = bridge.Deliver(map[string]any{
			"eventType":            domaintypes.EventExtensionStatus,
			"interactionId":        msg.InteractionID,
			"isWalletLinked":       true,
			"isExtensionAvailable": true,
			"canHandleSessions":    false,
		})
	}()

	status, err := tr.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsWalletLinked)

	avail, _ := tr.IsAvailable().Value()
	linked, _ := tr.IsLinked().Value()
	assert.True(t, avail)
	assert.True(t, linked)
}

func TestDecodeIncoming(t *testing.T) {
	in, err := extension.DecodeIncoming([]byte(`{"eventType":"receivedByWallet","interactionId":"i1"}`))
	require.NoError(t, err)
	assert.Equal(t, domaintypes.EventReceivedByWallet, in.Event)
	assert.Nil(t, in.Response)

	raw, _ := json.Marshal(domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseFailure,
		InteractionID: "i2",
		Error:         domaintypes.ErrorRejectedByUser,
	})
	in, err = extension.DecodeIncoming(raw)
	require.NoError(t, err)
	require.NotNil(t, in.Response)
	assert.Equal(t, domain.InteractionID("i2"), in.InteractionID)

	_, err = extension.DecodeIncoming([]byte(`{"eventType":"bogus"}`))
	assert.Error(t, err)
	_, err = extension.DecodeIncoming([]byte(`{"hello":"world"}`))
	assert.Error(t, err)
}

func TestIsSupported_OffMobileOnly(t *testing.T) {
	bridge := extension.NewChannelBridge(1)
	tr := extension.New(bridge, &transport.Env{Mobile: true})
	defer tr.Destroy()
	assert.False(t, tr.IsSupported())
}
