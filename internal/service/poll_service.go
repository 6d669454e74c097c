package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/specification"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/query"
	"taxii-services/pkg/taxii/status"
	"taxii-services/pkg/xmldoc"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DeliveryPolicy decides whether a poll result is delivered asynchronously.
type DeliveryPolicy interface {
	Async(matches int) bool
	EstimatedWait() time.Duration
}

// ThresholdPolicy goes asynchronous when the match count exceeds Threshold.
// A zero Threshold always answers synchronously.
type ThresholdPolicy struct {
	Threshold int
	Wait      time.Duration
}

func (p ThresholdPolicy) Async(matches int) bool {
	return p.Threshold > 0 && matches > p.Threshold
}

func (p ThresholdPolicy) EstimatedWait() time.Duration {
	return p.Wait
}

// DefaultResultSetTTL applies when a poll service is built without a
// positive result set lifetime.
const DefaultResultSetTTL = 24 * time.Hour

const resultIDLayout = "2006-01-02T15:04:05.000000"

var resultIDPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}-[0-9a-f]{8}$`)

// NewResultID derives a result set id from the poll instant plus a random suffix.
func NewResultID(now time.Time) string {
	return now.UTC().Format(resultIDLayout) + "-" + uuid.NewString()[:8]
}

// ValidResultID reports whether id has the shape NewResultID produces.
func ValidResultID(id string) bool {
	return resultIDPattern.MatchString(id)
}

type IPollService interface {
	Poll(ctx context.Context, req *TaxiiRequest) (messages.Message, error)
}

type pollService struct {
	uowFactory   unitofwork.RepositoryFactory
	registry     *binding.Registry
	evaluator    *query.Evaluator
	compiler     *xmldoc.Compiler
	policy       DeliveryPolicy
	resultSetTTL time.Duration
	logger       logger.ILogger
	now          func() time.Time
}

func NewPollService(
	uowFactory unitofwork.RepositoryFactory,
	registry *binding.Registry,
	evaluator *query.Evaluator,
	compiler *xmldoc.Compiler,
	policy DeliveryPolicy,
	resultSetTTL time.Duration,
	log logger.ILogger,
) IPollService {
	if resultSetTTL <= 0 {
		resultSetTTL = DefaultResultSetTTL
	}
	return &pollService{
		uowFactory:   uowFactory,
		registry:     registry,
		evaluator:    evaluator,
		compiler:     compiler,
		policy:       policy,
		resultSetTTL: resultSetTTL,
		logger:       log,
		now:          time.Now,
	}
}

// pollParams are the effective parameters of one poll, taken from the
// request or from the subscription it names.
type pollParams struct {
	responseType string
	bindings     []binding.ContentDescriptor
	query        *query.Query
	allowAsync   bool
}

func (s *pollService) Poll(ctx context.Context, req *TaxiiRequest) (messages.Message, error) {
	msg, ok := req.Message.(*messages.PollRequest)
	if !ok {
		return nil, status.UnsupportedMessage("Poll service expects a Poll_Request, got %s", req.Message.Kind())
	}

	ctx, span := otel.Tracer("taxii").Start(ctx, "poll")
	defer span.End()
	span.SetAttributes(attribute.String("taxii.collection", msg.CollectionName))

	// One instant for the whole poll: filtering and the echoed end agree.
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	collection, err := findServedCollection(ctx, uow, req.Service, msg.CollectionName)
	if err != nil {
		return nil, err
	}

	params, err := s.resolveParams(ctx, uow, msg)
	if err != nil {
		return nil, err
	}

	end := now
	if msg.InclusiveEndTimestamp != nil && msg.InclusiveEndTimestamp.Before(now) {
		end = *msg.InclusiveEndTimestamp
	}
	begin := msg.ExclusiveBeginTimestamp
	if begin != nil && !begin.Before(end) {
		return nil, status.Failure("Exclusive_Begin_Timestamp must be earlier than the effective Inclusive_End_Timestamp")
	}

	specs, err := s.buildSpecifications(collection, params, begin, end)
	if err != nil {
		return nil, err
	}
	if params.query != nil {
		if err := s.checkQuery(collection, params.query); err != nil {
			return nil, err
		}
	}

	candidates, err := uow.ContentBlockRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("select content blocks: %w", err)
	}

	matched, err := s.applyQuery(candidates, params.query)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("taxii.candidates", len(candidates)), attribute.Int("taxii.matches", len(matched)))

	if s.policy.Async(len(matched)) {
		return nil, s.deferResult(ctx, uow, req.Service, msg, params, matched, begin, end, now)
	}

	resp := &messages.PollResponse{
		Header:                  messages.NewHeader(msg.MessageID),
		CollectionName:          collection.Name,
		ResultPartNumber:        1,
		SubscriptionID:          msg.SubscriptionID,
		InclusiveBeginTimestamp: inclusiveBegin(begin),
		InclusiveEndTimestamp:   end,
	}
	fillPollResponse(resp, params.responseType, matched)

	s.logger.Debug("Poll", "Poll answered", map[string]interface{}{
		"collection": collection.Name,
		"matches":    len(matched),
	})
	return resp, nil
}

// findServedCollection resolves a collection the service is configured to serve.
func findServedCollection(ctx context.Context, uow unitofwork.UnitOfWork, svc *entity.Service, name string) (*entity.Collection, error) {
	if !svc.ServesCollection(name) {
		return nil, status.NotFound(name, "The collection %s was not found", name)
	}
	collection, err := uow.CollectionRepository().FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find collection %s: %w", name, err)
	}
	if collection == nil || !collection.Enabled {
		return nil, status.NotFound(name, "The collection %s was not found", name)
	}
	return collection, nil
}

func (s *pollService) resolveParams(ctx context.Context, uow unitofwork.UnitOfWork, msg *messages.PollRequest) (pollParams, error) {
	if msg.SubscriptionID != "" {
		sub, err := uow.SubscriptionRepository().FindBySubscriptionId(ctx, msg.SubscriptionID)
		if err != nil {
			return pollParams{}, fmt.Errorf("find subscription %s: %w", msg.SubscriptionID, err)
		}
		if sub == nil || sub.CollectionName != msg.CollectionName {
			return pollParams{}, status.NotFound(msg.SubscriptionID, "The subscription %s was not found", msg.SubscriptionID)
		}
		if sub.Status != entity.SubscriptionStatusActive {
			return pollParams{}, status.Failure("Subscription %s is %s", sub.SubscriptionId, sub.Status)
		}
		// Subscriptions store no delivery preference; Allow_Asynch still
		// comes from the request.
		params := pollParams{
			responseType: sub.ResponseType,
			bindings:     sub.ContentBindings,
			query:        sub.Query,
		}
		if p := msg.PollParameters; p != nil {
			params.allowAsync = p.AllowAsynch
		}
		return params, nil
	}

	params := pollParams{responseType: messages.ResponseTypeFull}
	if p := msg.PollParameters; p != nil {
		if p.ResponseType != "" {
			params.responseType = p.ResponseType
		}
		params.bindings = descriptorsOf(p.ContentBindings)
		params.query = p.Query.ToQuery()
		params.allowAsync = p.AllowAsynch
	}
	if params.responseType != messages.ResponseTypeFull && params.responseType != messages.ResponseTypeCountOnly {
		return pollParams{}, status.Malformed("Response_Type must be FULL or COUNT_ONLY")
	}
	return params, nil
}

func (s *pollService) buildSpecifications(collection *entity.Collection, params pollParams, begin *time.Time, end time.Time) ([]specification.ContentBlockSpecification, error) {
	specs := []specification.ContentBlockSpecification{
		specification.InCollection{CollectionID: collection.Id},
		specification.TimestampAtOrBefore{Time: end},
	}
	if begin != nil {
		specs = append(specs, specification.TimestampAfter{Time: *begin})
	}

	if len(params.bindings) > 0 {
		names := make([]string, 0, len(params.bindings))
		for _, d := range params.bindings {
			if !binding.Supports(s.registry, collection.SupportedContent, d) {
				return nil, status.UnsupportedContent(binding.Bindings(collection.SupportedContent),
					"Content binding %s is not supported by collection %s", d.Binding, collection.Name)
			}
			names = append(names, d.Binding)
		}
		specs = append(specs, specification.BindingIn{Bindings: names})
	}

	return append(specs, specification.OrderByTimestampLabel{}), nil
}

func (s *pollService) checkQuery(collection *entity.Collection, q *query.Query) error {
	supported := []string{query.FormatDefault}
	if !collection.Queryable {
		return status.UnsupportedQuery(supported, "Collection %s does not support queries", collection.Name)
	}
	if !s.evaluator.Supported(q) {
		return status.UnsupportedQuery(supported, "Query format %s with targeting expression %s is not supported",
			q.FormatID, q.TargetingExpressionID)
	}
	return nil
}

// applyQuery keeps the candidates the query matches. Payloads that are not
// XML never match; any evaluator error aborts the poll.
func (s *pollService) applyQuery(candidates []*entity.ContentBlock, q *query.Query) ([]*entity.ContentBlock, error) {
	if q == nil {
		return candidates, nil
	}
	out := make([]*entity.ContentBlock, 0, len(candidates))
	for _, b := range candidates {
		doc, ok := s.compiler.Parse(b.Payload)
		if !ok {
			continue
		}
		match, err := s.evaluator.Evaluate(q, doc)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *pollService) deferResult(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	svc *entity.Service,
	msg *messages.PollRequest,
	params pollParams,
	matched []*entity.ContentBlock,
	begin *time.Time,
	end, now time.Time,
) error {
	if !params.allowAsync {
		return status.Unsupported("The result is too large for a synchronous response and the client must allow async")
	}

	ids := make([]uuid.UUID, 0, len(matched))
	for _, b := range matched {
		ids = append(ids, b.Id)
	}
	rs := &entity.ResultSet{
		Id:              NewResultID(now),
		CollectionName:  msg.CollectionName,
		ServicePath:     svc.Path,
		ContentBlockIds: ids,
		ResponseType:    params.responseType,
		BeginTimestamp:  begin,
		EndTimestamp:    end,
		SubscriptionId:  msg.SubscriptionID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.resultSetTTL),
	}
	if err := uow.ResultSetRepository().Create(ctx, rs); err != nil {
		return fmt.Errorf("store result set: %w", err)
	}

	s.logger.Info("Poll", "Result set deferred", map[string]interface{}{
		"result_id":  rs.Id,
		"collection": rs.CollectionName,
		"blocks":     len(ids),
	})
	return status.Pending(rs.Id, int(s.policy.EstimatedWait().Seconds()), false)
}

// fillPollResponse sets the record count and, for FULL responses, the blocks.
func fillPollResponse(resp *messages.PollResponse, responseType string, blocks []*entity.ContentBlock) {
	resp.RecordCount = &messages.RecordCount{Value: len(blocks)}
	if responseType == messages.ResponseTypeCountOnly {
		return
	}
	resp.ContentBlocks = make([]messages.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		resp.ContentBlocks = append(resp.ContentBlocks, wireBlock(b))
	}
}
