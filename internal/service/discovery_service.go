package service

import (
	"context"

	"taxii-services/internal/entity"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/query"
	"taxii-services/pkg/taxii/status"
)

type IDiscoveryService interface {
	Discover(ctx context.Context, req *TaxiiRequest) (messages.Message, error)
}

type discoveryService struct {
	catalog   IServiceCatalogService
	evaluator *query.Evaluator
	baseURL   string
}

func NewDiscoveryService(catalog IServiceCatalogService, evaluator *query.Evaluator, baseURL string) IDiscoveryService {
	return &discoveryService{
		catalog:   catalog,
		evaluator: evaluator,
		baseURL:   baseURL,
	}
}

func (s *discoveryService) Discover(ctx context.Context, req *TaxiiRequest) (messages.Message, error) {
	msg, ok := req.Message.(*messages.DiscoveryRequest)
	if !ok {
		return nil, status.UnsupportedMessage("Discovery service expects a Discovery_Request, got %s", req.Message.Kind())
	}

	services, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := &messages.DiscoveryResponse{Header: messages.NewHeader(msg.MessageID)}
	for _, svc := range services {
		if !svc.Enabled {
			continue
		}
		resp.ServiceInstances = append(resp.ServiceInstances, s.instance(svc))
	}
	return resp, nil
}

func (s *discoveryService) instance(svc *entity.Service) messages.ServiceInstance {
	contact := serviceContact(s.baseURL, svc)
	inst := messages.ServiceInstance{
		ServiceType:     string(svc.Kind),
		ServiceVersion:  binding.ServicesV11,
		Available:       true,
		ProtocolBinding: contact.ProtocolBinding,
		Address:         contact.Address,
		MessageBindings: contact.MessageBindings,
		Message:         svc.Description,
	}

	switch svc.Kind {
	case entity.ServiceKindInbox:
		inst.ContentBindings = advertisedBindings(svc.SupportedContent)
	case entity.ServiceKindPoll:
		inst.SupportedQueries = []messages.SupportedQuery{s.supportedQuery()}
	}
	return inst
}

// supportedQuery advertises the default query format with the scopes the
// evaluator can resolve.
func (s *discoveryService) supportedQuery() messages.SupportedQuery {
	preferred, allowed := s.evaluator.Scopes()
	return messages.SupportedQuery{
		FormatID: query.FormatDefault,
		Info: &messages.DefaultQueryInfo{
			TargetingExpressions: []messages.TargetingExpressionInfo{{
				ID:             query.TargetingSTIX111,
				PreferredScope: []string{preferred},
				AllowedScope:   allowed,
			}},
			CapabilityModules: []string{query.CapabilityCore},
		},
	}
}
