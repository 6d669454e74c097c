package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/repository/memory"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/query"
	"taxii-services/pkg/taxii/status"
	"taxii-services/pkg/xmldoc"

	"github.com/stretchr/testify/require"
)

const (
	testBaseURL = "http://taxii.example.com"

	pathDiscovery  = "discovery"
	pathPoll       = "poll"
	pathCollection = "collection-management"
	pathInbox      = "inbox"
	pathInboxReq   = "inbox-required"
	pathDisabled   = "disabled-poll"

	collDefault = "default"
	collCAP     = "cap-alerts"
	collClosed  = "closed"
)

type fixture struct {
	t        *testing.T
	factory  unitofwork.RepositoryFactory
	catalog  IServiceCatalogService
	inbox    *inboxService
	poll     *pollService
	fulfill  IFulfillmentService
	discover IDiscoveryService
	info     ICollectionService
	subs     *subscriptionService
	dispatch *Dispatcher
	clock    time.Time
}

func stixOnly() binding.SupportedContent {
	return binding.Only(binding.Pair{Binding: binding.ContentSTIXXML111})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore(time.Hour))
	log := logger.NewNopLogger()

	uow := factory.NewUnitOfWork(ctx)
	services := []*entity.Service{
		{Path: pathDiscovery, Kind: entity.ServiceKindDiscovery, Enabled: true},
		{Path: pathPoll, Kind: entity.ServiceKindPoll, Enabled: true, CollectionNames: []string{collDefault, collCAP, collClosed}},
		{Path: pathCollection, Kind: entity.ServiceKindCollectionManagement, Enabled: true, CollectionNames: []string{collDefault, collCAP}},
		{
			Path: pathInbox, Kind: entity.ServiceKindInbox, Enabled: true,
			DestinationCollectionStatus: entity.DestinationCollectionOptional,
			SupportedContent:            binding.AcceptAllContent(),
			CollectionNames:             []string{collDefault, collCAP, collClosed},
		},
		{
			Path: pathInboxReq, Kind: entity.ServiceKindInbox, Enabled: true,
			DestinationCollectionStatus: entity.DestinationCollectionRequired,
			SupportedContent:            stixOnly(),
			CollectionNames:             []string{collDefault},
		},
		{Path: pathDisabled, Kind: entity.ServiceKindPoll, Enabled: false, CollectionNames: []string{collDefault}},
	}
	for _, svc := range services {
		svc.ProtocolBindings = []string{binding.ProtocolHTTP}
		svc.MessageBindings = []string{binding.MessageXML11}
		require.NoError(t, uow.ServiceRepository().Create(ctx, svc))
	}

	collections := []*entity.Collection{
		{Name: collDefault, Type: entity.CollectionTypeDataFeed, Queryable: true, Enabled: true, SupportedContent: stixOnly()},
		{Name: collCAP, Type: entity.CollectionTypeDataSet, Enabled: true, SupportedContent: binding.Only(binding.Pair{Binding: binding.ContentCAP11})},
		{Name: collClosed, Type: entity.CollectionTypeDataFeed, Enabled: false, SupportedContent: binding.AcceptAllContent()},
	}
	for _, c := range collections {
		require.NoError(t, uow.CollectionRepository().Create(ctx, c))
	}

	registry := binding.DefaultRegistry()
	evaluator := query.NewEvaluator()
	catalog := NewServiceCatalogService(factory, time.Minute)
	publisher := NewPublisherService(EventsTopic, nil, nil, log)

	// Result set expiry is checked against the wall clock, so the fixture
	// clock starts there.
	f := &fixture{t: t, factory: factory, catalog: catalog, clock: time.Now().UTC().Truncate(time.Millisecond)}
	f.inbox = NewInboxService(factory, registry, publisher, log, log).(*inboxService)
	f.inbox.now = f.now
	f.poll = NewPollService(factory, registry, evaluator, xmldoc.NewCompiler(query.Namespaces),
		ThresholdPolicy{Threshold: 0, Wait: 30 * time.Second}, time.Hour, log).(*pollService)
	f.poll.now = f.now
	f.fulfill = NewFulfillmentService(factory, log)
	f.discover = NewDiscoveryService(catalog, evaluator, testBaseURL)
	f.info = NewCollectionService(factory, catalog, nil, testBaseURL, log)
	f.subs = NewSubscriptionService(factory, catalog, registry, evaluator, publisher, testBaseURL, log).(*subscriptionService)
	f.subs.now = f.now
	f.dispatch = NewDispatcher(f.inbox, f.poll, f.fulfill, f.discover, f.info, f.subs)
	return f
}

func (f *fixture) now() time.Time {
	return f.clock
}

// advance moves the fixture clock forward.
func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) service(path string) *entity.Service {
	f.t.Helper()
	svc, err := f.catalog.FindByPath(context.Background(), path)
	require.NoError(f.t, err)
	require.NotNil(f.t, svc)
	return svc
}

// handle dispatches msg to the service at path like the transport would.
func (f *fixture) handle(path string, msg messages.Message) (messages.Message, error) {
	svc := f.service(path)
	h, err := f.dispatch.Dispatch(svc, msg)
	if err != nil {
		return nil, err
	}
	return h(context.Background(), &TaxiiRequest{Service: svc, Message: msg, SourceIP: "192.0.2.10", Submitter: "tester"})
}

func (f *fixture) countBlocks() int64 {
	f.t.Helper()
	n, err := f.factory.NewUnitOfWork(context.Background()).ContentBlockRepository().Count(context.Background())
	require.NoError(f.t, err)
	return n
}

func stixBlock(address string) messages.ContentBlock {
	return messages.ContentBlock{
		ContentBinding: messages.NewContentBinding(binding.ContentSTIXXML111),
		Content:        messages.NewContent(stixPackage(address)),
	}
}

func stixPackage(address string) string {
	return fmt.Sprintf(`<stix:STIX_Package xmlns:stix="http://stix.mitre.org/stix-1" xmlns:cybox="http://cybox.mitre.org/cybox-2" xmlns:AddressObj="http://cybox.mitre.org/objects#AddressObject-2">
  <stix:Observables>
    <cybox:Observable>
      <cybox:Object>
        <cybox:Properties>
          <AddressObj:Address_Value>%s</AddressObj:Address_Value>
        </cybox:Properties>
      </cybox:Object>
    </cybox:Observable>
  </stix:Observables>
</stix:STIX_Package>`, address)
}

func inboxMessage(id string, destinations []string, blocks ...messages.ContentBlock) *messages.InboxMessage {
	return &messages.InboxMessage{
		Header:                     messages.Header{MessageID: id},
		DestinationCollectionNames: destinations,
		ContentBlocks:              blocks,
	}
}

func pollRequest(id, collection string) *messages.PollRequest {
	return &messages.PollRequest{
		Header:         messages.Header{MessageID: id},
		CollectionName: collection,
	}
}

// requireStatus asserts err is a *status.Error of the given wire type.
func requireStatus(t *testing.T, err error, typ status.Type) *status.Error {
	t.Helper()
	require.Error(t, err)
	se, ok := status.As(err)
	require.True(t, ok, "expected a status error, got %v", err)
	require.Equal(t, typ, se.Type, se.Message)
	return se
}
