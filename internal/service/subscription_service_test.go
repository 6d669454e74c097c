package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manage(action, collection, subscriptionID string) *messages.ManageCollectionSubscriptionRequest {
	return &messages.ManageCollectionSubscriptionRequest{
		Header:         messages.Header{MessageID: "s-" + action},
		CollectionName: collection,
		Action:         action,
		SubscriptionID: subscriptionID,
	}
}

func (f *fixture) subscribe(params *messages.SubscriptionParameters) messages.SubscriptionInstance {
	f.t.Helper()
	req := manage(messages.ActionSubscribe, collDefault, "")
	req.SubscriptionParameters = params
	out, err := f.handle(pathCollection, req)
	require.NoError(f.t, err)
	resp := out.(*messages.ManageCollectionSubscriptionResponse)
	require.Len(f.t, resp.Subscriptions, 1)
	return resp.Subscriptions[0]
}

func TestSubscription_Lifecycle(t *testing.T) {
	f := newFixture(t)

	sub := f.subscribe(&messages.SubscriptionParameters{ResponseType: messages.ResponseTypeCountOnly})
	assert.Equal(t, messages.SubscriptionActive, sub.Status)
	assert.NotEmpty(t, sub.SubscriptionID)
	require.Len(t, sub.PollInstances, 1)
	assert.Equal(t, testBaseURL+"/services/"+pathPoll, sub.PollInstances[0].Address)

	f.ingest("m-1", stixBlock("10.0.0.1"))
	f.advance(time.Second)

	req := pollRequest("p-1", collDefault)
	req.SubscriptionID = sub.SubscriptionID
	out, err := f.handle(pathPoll, req)
	require.NoError(t, err)
	resp := out.(*messages.PollResponse)
	assert.Equal(t, 1, resp.RecordCount.Value)
	assert.Empty(t, resp.ContentBlocks, "subscription asked for COUNT_ONLY")
	assert.Equal(t, sub.SubscriptionID, resp.SubscriptionID)

	out, err = f.handle(pathCollection, manage(messages.ActionPause, collDefault, sub.SubscriptionID))
	require.NoError(t, err)
	assert.Equal(t, messages.SubscriptionPaused, out.(*messages.ManageCollectionSubscriptionResponse).Subscriptions[0].Status)

	_, err = f.handle(pathPoll, req)
	requireStatus(t, err, status.TypeFailure)

	out, err = f.handle(pathCollection, manage(messages.ActionResume, collDefault, sub.SubscriptionID))
	require.NoError(t, err)
	assert.Equal(t, messages.SubscriptionActive, out.(*messages.ManageCollectionSubscriptionResponse).Subscriptions[0].Status)

	_, err = f.handle(pathPoll, req)
	require.NoError(t, err)

	out, err = f.handle(pathCollection, manage(messages.ActionUnsubscribe, collDefault, sub.SubscriptionID))
	require.NoError(t, err)
	assert.Equal(t, messages.SubscriptionUnsubscribed, out.(*messages.ManageCollectionSubscriptionResponse).Subscriptions[0].Status)

	_, err = f.handle(pathCollection, manage(messages.ActionResume, collDefault, sub.SubscriptionID))
	requireStatus(t, err, status.TypeFailure)
}

func TestSubscription_PollCanGoAsync(t *testing.T) {
	f := newFixture(t)
	f.poll.policy = ThresholdPolicy{Threshold: 1}
	sub := f.subscribe(nil)
	f.ingest("m-1", stixBlock("10.0.0.1"), stixBlock("10.0.0.2"))
	f.advance(time.Second)

	req := pollRequest("p-1", collDefault)
	req.SubscriptionID = sub.SubscriptionID
	_, err := f.handle(pathPoll, req)
	se := requireStatus(t, err, status.TypeFailure)
	assert.Equal(t, status.KindUnsupported, se.Kind)

	req.PollParameters = &messages.PollParameters{AllowAsynch: true}
	_, err = f.handle(pathPoll, req)
	se = requireStatus(t, err, status.TypePending)

	out, err := f.handle(pathPoll, &messages.PollFulfillmentRequest{
		Header:           messages.Header{MessageID: "f-1"},
		CollectionName:   collDefault,
		ResultID:         se.Detail(status.DetailResultID),
		ResultPartNumber: 1,
	})
	require.NoError(t, err)
	resp := out.(*messages.PollResponse)
	assert.Equal(t, sub.SubscriptionID, resp.SubscriptionID)
	assert.Len(t, resp.ContentBlocks, 2)
}

func TestSubscription_ConcurrentPauseAndUnsubscribe(t *testing.T) {
	f := newFixture(t)
	svc := f.service(pathCollection)
	run := func(action, subscriptionID string) error {
		msg := manage(action, collDefault, subscriptionID)
		h, err := f.dispatch.Dispatch(svc, msg)
		if err != nil {
			return err
		}
		_, err = h(context.Background(), &TaxiiRequest{Service: svc, Message: msg})
		return err
	}

	for i := 0; i < 25; i++ {
		sub := f.subscribe(nil)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, action := range []string{messages.ActionPause, messages.ActionUnsubscribe} {
			wg.Add(1)
			go func(j int, action string) {
				defer wg.Done()
				errs[j] = run(action, sub.SubscriptionID)
			}(j, action)
		}
		wg.Wait()

		require.NoError(t, errs[1])
		if errs[0] != nil {
			// PAUSE lost the race and saw the subscription already gone.
			requireStatus(t, errs[0], status.TypeFailure)
		}

		out, err := f.handle(pathCollection, manage(messages.ActionStatus, collDefault, sub.SubscriptionID))
		require.NoError(t, err)
		got := out.(*messages.ManageCollectionSubscriptionResponse).Subscriptions
		require.Len(t, got, 1)
		assert.Equal(t, messages.SubscriptionUnsubscribed, got[0].Status)
	}
}

func TestSubscription_Status(t *testing.T) {
	f := newFixture(t)
	first := f.subscribe(nil)
	second := f.subscribe(nil)

	out, err := f.handle(pathCollection, manage(messages.ActionStatus, collDefault, ""))
	require.NoError(t, err)
	resp := out.(*messages.ManageCollectionSubscriptionResponse)
	ids := []string{}
	for _, s := range resp.Subscriptions {
		ids = append(ids, s.SubscriptionID)
	}
	assert.ElementsMatch(t, []string{first.SubscriptionID, second.SubscriptionID}, ids)

	out, err = f.handle(pathCollection, manage(messages.ActionStatus, collDefault, first.SubscriptionID))
	require.NoError(t, err)
	resp = out.(*messages.ManageCollectionSubscriptionResponse)
	require.Len(t, resp.Subscriptions, 1)
	assert.Equal(t, first.SubscriptionID, resp.Subscriptions[0].SubscriptionID)
	assert.Equal(t, messages.ResponseTypeFull, resp.Subscriptions[0].SubscriptionParameters.ResponseType)
}

func TestSubscription_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.handle(pathCollection, manage(messages.ActionSubscribe, "ghost", ""))
	se := requireStatus(t, err, status.TypeNotFound)
	assert.Equal(t, "ghost", se.Detail(status.DetailItem))

	_, err = f.handle(pathCollection, manage(messages.ActionPause, collDefault, "missing"))
	se = requireStatus(t, err, status.TypeNotFound)
	assert.Equal(t, "missing", se.Detail(status.DetailItem))

	req := pollRequest("p-1", collDefault)
	req.SubscriptionID = "missing"
	_, err = f.handle(pathPoll, req)
	requireStatus(t, err, status.TypeNotFound)
}

func TestSubscription_UnsubscribeUnknownIsIdempotent(t *testing.T) {
	f := newFixture(t)

	out, err := f.handle(pathCollection, manage(messages.ActionUnsubscribe, collDefault, "missing"))
	require.NoError(t, err)
	resp := out.(*messages.ManageCollectionSubscriptionResponse)
	require.Len(t, resp.Subscriptions, 1)
	assert.Equal(t, messages.SubscriptionUnsubscribed, resp.Subscriptions[0].Status)
}

func TestSubscription_RejectsUnsupportedParameters(t *testing.T) {
	f := newFixture(t)

	req := manage(messages.ActionSubscribe, collDefault, "")
	req.SubscriptionParameters = &messages.SubscriptionParameters{
		ContentBindings: []messages.ContentBinding{messages.NewContentBinding(binding.ContentCAP11)},
	}
	_, err := f.handle(pathCollection, req)
	requireStatus(t, err, status.TypeUnsupportedContentBinding)

	req = manage(messages.ActionSubscribe, collCAP, "")
	req.SubscriptionParameters = &messages.SubscriptionParameters{Query: addressQuery("10.0.0.1")}
	_, err = f.handle(pathCollection, req)
	requireStatus(t, err, status.TypeUnsupportedQuery)

	req = manage(messages.ActionPause, collDefault, "")
	_, err = f.handle(pathCollection, req)
	requireStatus(t, err, status.TypeBadMessage)
}
