package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/repository/contract"
	"taxii-services/internal/repository/specification"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngest_ThenPollReturnsBlock(t *testing.T) {
	f := newFixture(t)

	resp, err := f.handle(pathInbox, inboxMessage("m-1", []string{collDefault}, stixBlock("10.0.0.1")))
	require.NoError(t, err)
	sm, ok := resp.(*messages.StatusMessage)
	require.True(t, ok)
	assert.Equal(t, string(status.TypeSuccess), sm.StatusType)
	assert.Equal(t, "m-1", sm.InResponseTo)

	f.advance(time.Second)
	out, err := f.handle(pathPoll, pollRequest("p-1", collDefault))
	require.NoError(t, err)
	poll := out.(*messages.PollResponse)
	require.Len(t, poll.ContentBlocks, 1)
	assert.Equal(t, 1, poll.RecordCount.Value)
	assert.Equal(t, binding.ContentSTIXXML111, poll.ContentBlocks[0].ContentBinding.BindingID)
	assert.Contains(t, poll.ContentBlocks[0].Content.Payload(), "10.0.0.1")
}

func TestIngest_RequiredDestinationMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.handle(pathInboxReq, inboxMessage("m-1", nil, stixBlock("10.0.0.1")))
	se := requireStatus(t, err, status.TypeDestinationCollectionError)
	assert.Equal(t, status.KindPolicyViolation, se.Kind)
	assert.Equal(t, []string{collDefault}, se.Details[status.DetailAcceptableDestination])
	assert.Zero(t, f.countBlocks())
}

func TestIngest_ProhibitedDestination(t *testing.T) {
	f := newFixture(t)
	svc := *f.service(pathInbox)
	svc.DestinationCollectionStatus = entity.DestinationCollectionProhibited

	_, err := f.inbox.Ingest(context.Background(), &TaxiiRequest{
		Service: &svc,
		Message: inboxMessage("m-1", []string{collDefault}, stixBlock("10.0.0.1")),
	})
	requireStatus(t, err, status.TypeDestinationCollectionError)
	assert.Zero(t, f.countBlocks())
}

func TestIngest_UnknownOrDisabledDestination(t *testing.T) {
	for _, name := range []string{"ghost", collClosed} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.handle(pathInbox, inboxMessage("m-1", []string{collDefault, name}, stixBlock("10.0.0.1")))
			se := requireStatus(t, err, status.TypeNotFound)
			assert.Equal(t, name, se.Detail(status.DetailItem))
			assert.Zero(t, f.countBlocks())
		})
	}
}

func TestIngest_BlocksRoutedBySupportedContent(t *testing.T) {
	f := newFixture(t)
	alert := messages.ContentBlock{
		ContentBinding: messages.NewContentBinding(binding.ContentCAP11),
		Content:        messages.NewContent("<alert/>"),
	}
	unknown := messages.ContentBlock{
		ContentBinding: messages.NewContentBinding("urn:example:unknown"),
		Content:        messages.NewContent("opaque"),
	}

	_, err := f.handle(pathInbox, inboxMessage("m-1", []string{collDefault, collCAP}, stixBlock("10.0.0.1"), alert, unknown))
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.countBlocks())

	record, err := f.factory.NewUnitOfWork(context.Background()).InboxMessageRepository().FindOne(context.Background(), pathInbox, "m-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 3, record.BlockCountDeclared)
	assert.Equal(t, 2, record.BlockCountAccepted)
	assert.Equal(t, "192.0.2.10", record.SourceIp)
}

func TestIngest_WithoutDestinationsStoresUnattached(t *testing.T) {
	f := newFixture(t)

	_, err := f.handle(pathInbox, inboxMessage("m-1", nil, stixBlock("10.0.0.1")))
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.countBlocks())

	f.advance(time.Second)
	out, err := f.handle(pathPoll, pollRequest("p-1", collDefault))
	require.NoError(t, err)
	assert.Empty(t, out.(*messages.PollResponse).ContentBlocks)
}

func TestIngest_DuplicateMessageIsRejected(t *testing.T) {
	f := newFixture(t)
	msg := inboxMessage("m-1", []string{collDefault}, stixBlock("10.0.0.1"))

	_, err := f.handle(pathInbox, msg)
	require.NoError(t, err)
	_, err = f.handle(pathInbox, msg)
	requireStatus(t, err, status.TypeFailure)
	assert.EqualValues(t, 1, f.countBlocks())
}

// failingFactory hands out units of work whose Attach always fails.
type failingFactory struct {
	unitofwork.RepositoryFactory
}

func (f failingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return failingUnitOfWork{f.RepositoryFactory.NewUnitOfWork(ctx)}
}

type failingUnitOfWork struct {
	unitofwork.UnitOfWork
}

func (u failingUnitOfWork) ContentBlockRepository() contract.ContentBlockRepository {
	return failingBlocks{u.UnitOfWork.ContentBlockRepository()}
}

type failingBlocks struct {
	contract.ContentBlockRepository
}

func (failingBlocks) Attach(context.Context, uuid.UUID, uuid.UUID) error {
	return errors.New("disk full")
}

func TestIngest_PersistenceFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.inbox.uowFactory = failingFactory{f.factory}

	_, err := f.handle(pathInbox, inboxMessage("m-1", []string{collDefault}, stixBlock("10.0.0.1")))
	require.Error(t, err)
	assert.Equal(t, status.KindInternal, status.KindOf(err))
	assert.Equal(t, "An internal server error occurred", status.Classify(err).Message)

	assert.Zero(t, f.countBlocks())
	record, err := f.factory.NewUnitOfWork(context.Background()).InboxMessageRepository().FindOne(context.Background(), pathInbox, "m-1")
	require.NoError(t, err)
	assert.Nil(t, record)

	n, err := f.factory.NewUnitOfWork(context.Background()).ContentBlockRepository().Count(context.Background(), specification.BindingIn{Bindings: []string{binding.ContentSTIXXML111}})
	require.NoError(t, err)
	assert.Zero(t, n)
}
