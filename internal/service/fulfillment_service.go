package service

import (
	"context"
	"fmt"

	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/specification"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"
)

type IFulfillmentService interface {
	Fulfill(ctx context.Context, req *TaxiiRequest) (messages.Message, error)
}

type fulfillmentService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewFulfillmentService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IFulfillmentService {
	return &fulfillmentService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *fulfillmentService) Fulfill(ctx context.Context, req *TaxiiRequest) (messages.Message, error) {
	msg, ok := req.Message.(*messages.PollFulfillmentRequest)
	if !ok {
		return nil, status.UnsupportedMessage("Poll service expects a Poll_Fulfillment, got %s", req.Message.Kind())
	}

	// Ids we never generated cannot exist; skip the store.
	if !ValidResultID(msg.ResultID) {
		return nil, status.NotFound(msg.ResultID, "The result set %s was not found", msg.ResultID)
	}
	if msg.ResultPartNumber > 1 {
		return nil, status.NotFound(msg.ResultID, "Result set %s has no part %d", msg.ResultID, msg.ResultPartNumber)
	}
	if !req.Service.ServesCollection(msg.CollectionName) {
		return nil, status.NotFound(msg.CollectionName, "The collection %s was not found", msg.CollectionName)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin fulfillment: %w", err)
	}
	defer uow.Rollback()

	rs, err := uow.ResultSetRepository().Take(ctx, msg.ResultID)
	if err != nil {
		return nil, fmt.Errorf("take result set %s: %w", msg.ResultID, err)
	}
	if rs == nil || rs.CollectionName != msg.CollectionName {
		return nil, status.NotFound(msg.ResultID, "The result set %s was not found", msg.ResultID)
	}

	resp := &messages.PollResponse{
		Header:                  messages.NewHeader(msg.MessageID),
		CollectionName:          rs.CollectionName,
		ResultID:                rs.Id,
		ResultPartNumber:        1,
		SubscriptionID:          rs.SubscriptionId,
		InclusiveBeginTimestamp: inclusiveBegin(rs.BeginTimestamp),
		InclusiveEndTimestamp:   rs.EndTimestamp,
	}

	if len(rs.ContentBlockIds) == 0 {
		fillPollResponse(resp, rs.ResponseType, nil)
	} else {
		blocks, err := uow.ContentBlockRepository().FindAll(ctx,
			specification.BlockIDs{IDs: rs.ContentBlockIds},
			specification.OrderByTimestampLabel{},
		)
		if err != nil {
			return nil, fmt.Errorf("load result set blocks: %w", err)
		}
		fillPollResponse(resp, rs.ResponseType, blocks)
	}

	// The result set is only gone once the response exists.
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit fulfillment: %w", err)
	}

	s.logger.Info("Fulfillment", "Result set fulfilled", map[string]interface{}{
		"result_id":  rs.Id,
		"collection": rs.CollectionName,
		"blocks":     len(rs.ContentBlockIds),
	})
	return resp, nil
}
