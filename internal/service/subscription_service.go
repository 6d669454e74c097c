package service

import (
	"context"
	"fmt"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/events"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/query"
	"taxii-services/pkg/taxii/status"

	"github.com/google/uuid"
)

type ISubscriptionService interface {
	Manage(ctx context.Context, req *TaxiiRequest) (messages.Message, error)
}

type subscriptionService struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    IServiceCatalogService
	registry   *binding.Registry
	evaluator  *query.Evaluator
	publisher  IPublisherService
	baseURL    string
	logger     logger.ILogger
	now        func() time.Time
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	catalog IServiceCatalogService,
	registry *binding.Registry,
	evaluator *query.Evaluator,
	publisher IPublisherService,
	baseURL string,
	log logger.ILogger,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory: uowFactory,
		catalog:    catalog,
		registry:   registry,
		evaluator:  evaluator,
		publisher:  publisher,
		baseURL:    baseURL,
		logger:     log,
		now:        time.Now,
	}
}

func (s *subscriptionService) Manage(ctx context.Context, req *TaxiiRequest) (messages.Message, error) {
	msg, ok := req.Message.(*messages.ManageCollectionSubscriptionRequest)
	if !ok {
		return nil, status.UnsupportedMessage("Collection management service expects a Subscription_Management_Request, got %s", req.Message.Kind())
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	collection, err := findServedCollection(ctx, uow, req.Service, msg.CollectionName)
	if err != nil {
		return nil, err
	}

	var subs []*entity.Subscription
	switch msg.Action {
	case messages.ActionSubscribe:
		sub, err := s.subscribe(ctx, uow, req, msg, collection)
		if err != nil {
			return nil, err
		}
		subs = []*entity.Subscription{sub}
	case messages.ActionStatus:
		subs, err = s.status(ctx, uow, msg)
		if err != nil {
			return nil, err
		}
	case messages.ActionUnsubscribe, messages.ActionPause, messages.ActionResume:
		sub, err := s.transition(ctx, uow, msg)
		if err != nil {
			return nil, err
		}
		subs = []*entity.Subscription{sub}
	default:
		return nil, status.Malformed("Unknown subscription action %s", msg.Action)
	}

	pollInstances, err := s.pollInstances(ctx, collection.Name)
	if err != nil {
		return nil, err
	}

	resp := &messages.ManageCollectionSubscriptionResponse{
		Header:         messages.NewHeader(msg.MessageID),
		CollectionName: collection.Name,
	}
	for _, sub := range subs {
		resp.Subscriptions = append(resp.Subscriptions, subscriptionInstance(sub, pollInstances))
	}
	return resp, nil
}

func (s *subscriptionService) subscribe(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	req *TaxiiRequest,
	msg *messages.ManageCollectionSubscriptionRequest,
	collection *entity.Collection,
) (*entity.Subscription, error) {
	now := s.now()
	sub := &entity.Subscription{
		Id:             uuid.New(),
		SubscriptionId: uuid.NewString(),
		CollectionName: collection.Name,
		ServicePath:    req.Service.Path,
		Status:         entity.SubscriptionStatusActive,
		ResponseType:   messages.ResponseTypeFull,
		Subscriber:     req.Submitter,
		CreatedAt:      now,
	}

	if p := msg.SubscriptionParameters; p != nil {
		if p.ResponseType != "" {
			sub.ResponseType = p.ResponseType
		}
		sub.ContentBindings = descriptorsOf(p.ContentBindings)
		sub.Query = p.Query.ToQuery()
	}
	if sub.ResponseType != messages.ResponseTypeFull && sub.ResponseType != messages.ResponseTypeCountOnly {
		return nil, status.Malformed("Response_Type must be FULL or COUNT_ONLY")
	}
	for _, d := range sub.ContentBindings {
		if !binding.Supports(s.registry, collection.SupportedContent, d) {
			return nil, status.UnsupportedContent(binding.Bindings(collection.SupportedContent),
				"Content binding %s is not supported by collection %s", d.Binding, collection.Name)
		}
	}
	if sub.Query != nil {
		supported := []string{query.FormatDefault}
		if !collection.Queryable {
			return nil, status.UnsupportedQuery(supported, "Collection %s does not support queries", collection.Name)
		}
		if !s.evaluator.Supported(sub.Query) {
			return nil, status.UnsupportedQuery(supported, "Query format %s with targeting expression %s is not supported",
				sub.Query.FormatID, sub.Query.TargetingExpressionID)
		}
	}
	if pp := msg.PushParameters; pp != nil {
		sub.PushParameters = &entity.PushParameters{
			ProtocolBinding: pp.ProtocolBinding,
			Address:         pp.Address,
			MessageBinding:  pp.MessageBinding,
		}
	}

	if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	s.changed(ctx, sub, messages.ActionSubscribe)
	return sub, nil
}

func (s *subscriptionService) status(ctx context.Context, uow unitofwork.UnitOfWork, msg *messages.ManageCollectionSubscriptionRequest) ([]*entity.Subscription, error) {
	if msg.SubscriptionID == "" {
		subs, err := uow.SubscriptionRepository().FindAllByCollection(ctx, msg.CollectionName)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		return subs, nil
	}
	sub, err := s.find(ctx, uow, msg)
	if err != nil {
		return nil, err
	}
	return []*entity.Subscription{sub}, nil
}

// transition applies UNSUBSCRIBE, PAUSE or RESUME inside one transaction with
// the subscription row locked. Unsubscribing is idempotent; an unsubscribed
// subscription cannot be paused or resumed.
func (s *subscriptionService) transition(ctx context.Context, uow unitofwork.UnitOfWork, msg *messages.ManageCollectionSubscriptionRequest) (*entity.Subscription, error) {
	if msg.SubscriptionID == "" {
		return nil, status.Malformed("Action %s requires a Subscription_ID", msg.Action)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin subscription %s: %w", msg.Action, err)
	}
	defer uow.Rollback()

	sub, err := uow.SubscriptionRepository().FindBySubscriptionIdForUpdate(ctx, msg.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("find subscription %s: %w", msg.SubscriptionID, err)
	}
	if sub == nil || sub.CollectionName != msg.CollectionName {
		if msg.Action == messages.ActionUnsubscribe {
			return &entity.Subscription{
				SubscriptionId: msg.SubscriptionID,
				CollectionName: msg.CollectionName,
				Status:         entity.SubscriptionStatusUnsubscribed,
			}, nil
		}
		return nil, status.NotFound(msg.SubscriptionID, "The subscription %s was not found", msg.SubscriptionID)
	}

	var next entity.SubscriptionStatus
	switch msg.Action {
	case messages.ActionUnsubscribe:
		next = entity.SubscriptionStatusUnsubscribed
	case messages.ActionPause:
		next = entity.SubscriptionStatusPaused
	case messages.ActionResume:
		next = entity.SubscriptionStatusActive
	}
	if sub.Status == next {
		return sub, nil
	}
	if sub.Status == entity.SubscriptionStatusUnsubscribed {
		return nil, status.Failure("Subscription %s is %s", sub.SubscriptionId, sub.Status)
	}

	now := s.now()
	sub.Status = next
	sub.UpdatedAt = &now
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subscription %s: %w", sub.SubscriptionId, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit subscription %s: %w", msg.Action, err)
	}
	s.changed(ctx, sub, msg.Action)
	return sub, nil
}

func (s *subscriptionService) find(ctx context.Context, uow unitofwork.UnitOfWork, msg *messages.ManageCollectionSubscriptionRequest) (*entity.Subscription, error) {
	sub, err := uow.SubscriptionRepository().FindBySubscriptionId(ctx, msg.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("find subscription %s: %w", msg.SubscriptionID, err)
	}
	if sub == nil || sub.CollectionName != msg.CollectionName {
		return nil, status.NotFound(msg.SubscriptionID, "The subscription %s was not found", msg.SubscriptionID)
	}
	return sub, nil
}

func (s *subscriptionService) changed(ctx context.Context, sub *entity.Subscription, action string) {
	s.logger.Info("Subscription", "Subscription changed", map[string]interface{}{
		"subscription_id": sub.SubscriptionId,
		"collection":      sub.CollectionName,
		"action":          action,
		"status":          string(sub.Status),
	})
	s.publisher.Publish(ctx, events.SubscriptionChanged(sub.SubscriptionId, sub.CollectionName, action, string(sub.Status), s.now()))
}

func (s *subscriptionService) pollInstances(ctx context.Context, collection string) ([]messages.ServiceContact, error) {
	services, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []messages.ServiceContact
	for _, svc := range services {
		if svc.Enabled && svc.Kind == entity.ServiceKindPoll && svc.ServesCollection(collection) {
			out = append(out, serviceContact(s.baseURL, svc))
		}
	}
	return out, nil
}

func subscriptionInstance(sub *entity.Subscription, pollInstances []messages.ServiceContact) messages.SubscriptionInstance {
	inst := messages.SubscriptionInstance{
		Status:         string(sub.Status),
		SubscriptionID: sub.SubscriptionId,
		PollInstances:  pollInstances,
	}
	if sub.ResponseType != "" {
		inst.SubscriptionParameters = &messages.SubscriptionParameters{
			ResponseType:    sub.ResponseType,
			ContentBindings: wireBindings(sub.ContentBindings),
			Query:           messages.FromQuery(sub.Query),
		}
	}
	if pp := sub.PushParameters; pp != nil {
		inst.PushParameters = &messages.PushParameters{
			ProtocolBinding: pp.ProtocolBinding,
			Address:         pp.Address,
			MessageBinding:  pp.MessageBinding,
		}
	}
	return inst
}
