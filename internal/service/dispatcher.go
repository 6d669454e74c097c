package service

import (
	"taxii-services/internal/entity"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"
)

// Dispatcher routes a decoded message to the handler for its service kind.
type Dispatcher struct {
	inbox        IInboxService
	poll         IPollService
	fulfillment  IFulfillmentService
	discovery    IDiscoveryService
	collection   ICollectionService
	subscription ISubscriptionService
}

func NewDispatcher(
	inbox IInboxService,
	poll IPollService,
	fulfillment IFulfillmentService,
	discovery IDiscoveryService,
	collection ICollectionService,
	subscription ISubscriptionService,
) *Dispatcher {
	return &Dispatcher{
		inbox:        inbox,
		poll:         poll,
		fulfillment:  fulfillment,
		discovery:    discovery,
		collection:   collection,
		subscription: subscription,
	}
}

// Dispatch picks the handler for (service kind, message kind). Every pair
// outside the table is an UNSUPPORTED_MESSAGE naming both.
func (d *Dispatcher) Dispatch(svc *entity.Service, msg messages.Message) (Handler, error) {
	if svc == nil || !svc.Enabled {
		path := ""
		if svc != nil {
			path = svc.Path
		}
		return nil, status.NotFound(path, "The service %s was not found", path)
	}

	switch svc.Kind {
	case entity.ServiceKindInbox:
		if msg.Kind() == messages.KindInboxMessage {
			return d.inbox.Ingest, nil
		}
	case entity.ServiceKindPoll:
		switch msg.Kind() {
		case messages.KindPollRequest:
			return d.poll.Poll, nil
		case messages.KindPollFulfillmentRequest:
			return d.fulfillment.Fulfill, nil
		}
	case entity.ServiceKindDiscovery:
		if msg.Kind() == messages.KindDiscoveryRequest {
			return d.discovery.Discover, nil
		}
	case entity.ServiceKindCollectionManagement:
		switch msg.Kind() {
		case messages.KindCollectionInformationRequest:
			return d.collection.Information, nil
		case messages.KindManageCollectionSubscriptionRequest:
			return d.subscription.Manage, nil
		}
	}
	return nil, status.UnsupportedMessage("%s services do not handle %s messages", svc.Kind, msg.Kind()).
		WithDetail(status.DetailSupportedMessage, supportedMessages(svc.Kind)...)
}

func supportedMessages(kind entity.ServiceKind) []string {
	switch kind {
	case entity.ServiceKindInbox:
		return []string{messages.KindInboxMessage.String()}
	case entity.ServiceKindPoll:
		return []string{messages.KindPollRequest.String(), messages.KindPollFulfillmentRequest.String()}
	case entity.ServiceKindDiscovery:
		return []string{messages.KindDiscoveryRequest.String()}
	case entity.ServiceKindCollectionManagement:
		return []string{messages.KindCollectionInformationRequest.String(), messages.KindManageCollectionSubscriptionRequest.String()}
	}
	return nil
}
