package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/contract"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/events"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"

	"github.com/google/uuid"
)

type IInboxService interface {
	Ingest(ctx context.Context, req *TaxiiRequest) (messages.Message, error)
}

type inboxService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   *binding.Registry
	publisher  IPublisherService
	logger     logger.ILogger
	audit      logger.ILogger
	now        func() time.Time
}

func NewInboxService(
	uowFactory unitofwork.RepositoryFactory,
	registry *binding.Registry,
	publisher IPublisherService,
	log logger.ILogger,
	audit logger.ILogger,
) IInboxService {
	return &inboxService{
		uowFactory: uowFactory,
		registry:   registry,
		publisher:  publisher,
		logger:     log,
		audit:      audit,
		now:        time.Now,
	}
}

func (s *inboxService) Ingest(ctx context.Context, req *TaxiiRequest) (messages.Message, error) {
	msg, ok := req.Message.(*messages.InboxMessage)
	if !ok {
		return nil, status.UnsupportedMessage("Inbox service expects an Inbox_Message, got %s", req.Message.Kind())
	}
	svc := req.Service

	// Input-side checks first; nothing is written until all of them pass.
	names := msg.DestinationCollectionNames
	switch svc.DestinationCollectionStatus {
	case entity.DestinationCollectionRequired:
		if len(names) == 0 {
			return nil, status.DestinationCollection(svc.CollectionNames,
				"A Destination_Collection_Name is required and none were specified")
		}
	case entity.DestinationCollectionProhibited:
		if len(names) > 0 {
			return nil, status.DestinationCollection(nil,
				"Destination_Collection_Names are prohibited for this Inbox Service")
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	collections, err := s.resolveDestinations(ctx, uow, svc, names)
	if err != nil {
		return nil, err
	}

	record := &entity.InboxMessageRecord{
		Id:                     uuid.New(),
		MessageId:              msg.MessageID,
		ServicePath:            svc.Path,
		SourceIp:               req.SourceIP,
		Submitter:              req.Submitter,
		ResultId:               msg.ResultID,
		BlockCountDeclared:     len(msg.ContentBlocks),
		DestinationCollections: names,
		ReceivedAt:             s.now(),
	}
	if msg.RecordCount != nil {
		n := msg.RecordCount.Value
		record.RecordCount = &n
		record.PartialCount = msg.RecordCount.PartialCount
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin ingestion: %w", err)
	}
	defer uow.Rollback()

	if err := uow.InboxMessageRepository().Create(ctx, record); err != nil {
		if errors.Is(err, contract.ErrDuplicate) {
			return nil, status.Failure("Message %s was already received by this Inbox Service", msg.MessageID)
		}
		return nil, fmt.Errorf("record inbox message: %w", err)
	}

	accepted, perCollection, err := s.storeBlocks(ctx, uow, record, msg, svc, collections)
	if err != nil {
		return nil, err
	}

	if err := uow.InboxMessageRepository().UpdateAcceptedCount(ctx, record.Id, accepted); err != nil {
		return nil, fmt.Errorf("update accepted count: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit ingestion: %w", err)
	}

	s.audit.Info("Inbox", "Inbox message received", map[string]interface{}{
		"service":     svc.Path,
		"message_id":  msg.MessageID,
		"source_ip":   req.SourceIP,
		"submitter":   req.Submitter,
		"declared":    record.BlockCountDeclared,
		"accepted":    accepted,
		"collections": names,
	})
	if accepted > 0 {
		s.publisher.Publish(ctx, events.ContentIngested(svc.Path, msg.MessageID, perCollection, record.ReceivedAt))
	}

	return messages.NewSuccess(msg.MessageID), nil
}

// resolveDestinations maps each named destination to one of the service's
// configured, enabled collections.
func (s *inboxService) resolveDestinations(ctx context.Context, uow unitofwork.UnitOfWork, svc *entity.Service, names []string) ([]*entity.Collection, error) {
	if len(names) == 0 {
		return nil, nil
	}
	for _, name := range names {
		if !svc.ServesCollection(name) {
			return nil, status.NotFound(name, "The Destination Collection %s was not found", name)
		}
	}

	found, err := uow.CollectionRepository().FindByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("find destination collections: %w", err)
	}
	byName := make(map[string]*entity.Collection, len(found))
	for _, c := range found {
		byName[c.Name] = c
	}

	out := make([]*entity.Collection, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok || !c.Enabled {
			return nil, status.NotFound(name, "The Destination Collection %s was not found", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, c)
	}
	return out, nil
}

// storeBlocks persists every accepted block once and attaches it to each
// collection that supports it. It returns the accepted count and the number
// of blocks added per collection.
func (s *inboxService) storeBlocks(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	record *entity.InboxMessageRecord,
	msg *messages.InboxMessage,
	svc *entity.Service,
	collections []*entity.Collection,
) (int, map[string]int, error) {
	accepted := 0
	perCollection := make(map[string]int)
	blocks := uow.ContentBlockRepository()

	for i, cb := range msg.ContentBlocks {
		descriptor := descriptorOf(cb.ContentBinding)
		block := s.newBlock(record, msg, cb, descriptor)

		if len(collections) == 0 {
			if !binding.Supports(s.registry, svc.SupportedContent, descriptor) {
				s.logger.Debug("Inbox", "Content block rejected by inbox", map[string]interface{}{
					"message_id": msg.MessageID, "block": i, "binding": descriptor.Binding,
				})
				continue
			}
			if err := blocks.Create(ctx, block); err != nil {
				return 0, nil, fmt.Errorf("store content block %d: %w", i, err)
			}
			accepted++
			continue
		}

		stored := false
		for _, c := range collections {
			if !binding.Supports(s.registry, c.SupportedContent, descriptor) {
				continue
			}
			if !stored {
				if err := blocks.Create(ctx, block); err != nil {
					return 0, nil, fmt.Errorf("store content block %d: %w", i, err)
				}
				stored = true
			}
			if err := blocks.Attach(ctx, c.Id, block.Id); err != nil {
				return 0, nil, fmt.Errorf("attach content block %d to %s: %w", i, c.Name, err)
			}
			perCollection[c.Name]++
		}
		if stored {
			accepted++
		} else {
			s.logger.Debug("Inbox", "Content block rejected by every destination", map[string]interface{}{
				"message_id": msg.MessageID, "block": i, "binding": descriptor.Binding,
			})
		}
	}
	return accepted, perCollection, nil
}

func (s *inboxService) newBlock(record *entity.InboxMessageRecord, msg *messages.InboxMessage, cb messages.ContentBlock, d binding.ContentDescriptor) *entity.ContentBlock {
	// Timestamp labels are assigned by the receiving server; a sender's label
	// only orders its own feed.
	inboxId := record.Id
	return &entity.ContentBlock{
		Id:              uuid.New(),
		Payload:         cb.Content.Payload(),
		ContentBinding:  d.Binding,
		Subtypes:        d.Subtypes,
		TimestampLabel:  record.ReceivedAt,
		Padding:         cb.Padding,
		Message:         cb.Message,
		Submitter:       record.Submitter,
		OriginMessageId: msg.MessageID,
		InboxMessageId:  &inboxId,
		CreatedAt:       record.ReceivedAt,
	}
}
