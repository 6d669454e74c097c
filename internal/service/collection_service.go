package service

import (
	"context"
	"fmt"

	"taxii-services/internal/entity"
	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/specification"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"
	"taxii-services/pkg/volume"
)

type ICollectionService interface {
	Information(ctx context.Context, req *TaxiiRequest) (messages.Message, error)
}

type collectionService struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    IServiceCatalogService
	counter    volume.Counter
	baseURL    string
	logger     logger.ILogger
}

// NewCollectionService accepts a nil counter; volumes are then counted in
// the store on every request.
func NewCollectionService(
	uowFactory unitofwork.RepositoryFactory,
	catalog IServiceCatalogService,
	counter volume.Counter,
	baseURL string,
	log logger.ILogger,
) ICollectionService {
	return &collectionService{
		uowFactory: uowFactory,
		catalog:    catalog,
		counter:    counter,
		baseURL:    baseURL,
		logger:     log,
	}
}

func (s *collectionService) Information(ctx context.Context, req *TaxiiRequest) (messages.Message, error) {
	msg, ok := req.Message.(*messages.CollectionInformationRequest)
	if !ok {
		return nil, status.UnsupportedMessage("Collection management service expects a Collection_Information_Request, got %s", req.Message.Kind())
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	collections, err := uow.CollectionRepository().FindByNames(ctx, req.Service.CollectionNames)
	if err != nil {
		return nil, fmt.Errorf("find collections: %w", err)
	}
	services, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := &messages.CollectionInformationResponse{Header: messages.NewHeader(msg.MessageID)}
	for _, c := range collections {
		n, err := s.volume(ctx, uow, c)
		if err != nil {
			return nil, err
		}
		info := messages.CollectionInformation{
			Name:            c.Name,
			Type:            string(c.Type),
			Available:       c.Enabled,
			Description:     c.Description,
			Volume:          &n,
			ContentBindings: advertisedBindings(c.SupportedContent),
		}
		s.attachServices(&info, c.Name, services)
		resp.Collections = append(resp.Collections, info)
	}
	return resp, nil
}

// attachServices lists the enabled services that poll, manage or receive
// into the collection.
func (s *collectionService) attachServices(info *messages.CollectionInformation, name string, services []*entity.Service) {
	for _, svc := range services {
		if !svc.Enabled || !svc.ServesCollection(name) {
			continue
		}
		contact := serviceContact(s.baseURL, svc)
		switch svc.Kind {
		case entity.ServiceKindPoll:
			info.PollingServices = append(info.PollingServices, contact)
		case entity.ServiceKindCollectionManagement:
			info.SubscriptionServices = append(info.SubscriptionServices, contact)
		case entity.ServiceKindInbox:
			info.ReceivingInboxServices = append(info.ReceivingInboxServices, messages.ReceivingInbox{
				ServiceContact:  contact,
				ContentBindings: advertisedBindings(svc.SupportedContent),
			})
		}
	}
}

// volume reads the cached counter, rebuilding it from the store on a miss.
func (s *collectionService) volume(ctx context.Context, uow unitofwork.UnitOfWork, c *entity.Collection) (int, error) {
	if s.counter != nil {
		n, ok, err := s.counter.Get(ctx, c.Name)
		if err == nil && ok {
			return int(n), nil
		}
		if err != nil {
			s.logger.Warn("Collection", "Volume counter unavailable", map[string]interface{}{
				"collection": c.Name,
				"error":      err.Error(),
			})
		}
	}

	n, err := uow.ContentBlockRepository().Count(ctx, specification.InCollection{CollectionID: c.Id})
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", c.Name, err)
	}
	if s.counter != nil {
		if err := s.counter.Set(ctx, c.Name, n); err != nil {
			s.logger.Warn("Collection", "Failed to store volume counter", map[string]interface{}{
				"collection": c.Name,
				"error":      err.Error(),
			})
		}
	}
	return int(n), nil
}
