package service

import (
	"testing"

	"taxii-services/internal/entity"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_Table(t *testing.T) {
	f := newFixture(t)

	all := []messages.Message{
		&messages.InboxMessage{},
		&messages.PollRequest{},
		&messages.PollFulfillmentRequest{},
		&messages.DiscoveryRequest{},
		&messages.CollectionInformationRequest{},
		&messages.ManageCollectionSubscriptionRequest{},
		&messages.StatusMessage{},
	}
	handled := map[entity.ServiceKind][]messages.Kind{
		entity.ServiceKindInbox:                {messages.KindInboxMessage},
		entity.ServiceKindPoll:                 {messages.KindPollRequest, messages.KindPollFulfillmentRequest},
		entity.ServiceKindDiscovery:            {messages.KindDiscoveryRequest},
		entity.ServiceKindCollectionManagement: {messages.KindCollectionInformationRequest, messages.KindManageCollectionSubscriptionRequest},
	}

	for kind, accepted := range handled {
		svc := &entity.Service{Path: "svc", Kind: kind, Enabled: true}
		for _, msg := range all {
			h, err := f.dispatch.Dispatch(svc, msg)
			if containsKind(accepted, msg.Kind()) {
				require.NoError(t, err, "%s / %s", kind, msg.Kind())
				assert.NotNil(t, h)
				continue
			}
			se := requireStatus(t, err, status.TypeUnsupportedMessage)
			assert.Contains(t, se.Message, string(kind))
			assert.Contains(t, se.Message, msg.Kind().String())
			assert.NotEmpty(t, se.Details[status.DetailSupportedMessage])
		}
	}
}

func containsKind(kinds []messages.Kind, k messages.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func TestDispatch_DisabledService(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatch.Dispatch(f.service(pathDisabled), &messages.PollRequest{})
	se := requireStatus(t, err, status.TypeNotFound)
	assert.Equal(t, pathDisabled, se.Detail(status.DetailItem))
}
