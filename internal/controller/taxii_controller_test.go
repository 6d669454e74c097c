package controller

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/pkg/serverutils"
	"taxii-services/internal/repository/memory"
	"taxii-services/internal/service"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/headers"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/query"
	"taxii-services/pkg/taxii/status"
	"taxii-services/pkg/xmldoc"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret"

func newTestApp(t *testing.T, auth AuthConfig) *fiber.App {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore(time.Hour))
	_, err := service.Seed(ctx, factory)
	require.NoError(t, err)

	log := logger.NewNopLogger()
	registry := binding.DefaultRegistry()
	evaluator := query.NewEvaluator()
	catalog := service.NewServiceCatalogService(factory, time.Minute)
	publisher := service.NewPublisherService(service.EventsTopic, nil, nil, log)

	dispatcher := service.NewDispatcher(
		service.NewInboxService(factory, registry, publisher, log, log),
		service.NewPollService(factory, registry, evaluator, xmldoc.NewCompiler(query.Namespaces), service.ThresholdPolicy{}, time.Hour, log),
		service.NewFulfillmentService(factory, log),
		service.NewDiscoveryService(catalog, evaluator, "http://taxii.test"),
		service.NewCollectionService(factory, catalog, nil, "http://taxii.test", log),
		service.NewSubscriptionService(factory, catalog, registry, evaluator, publisher, "http://taxii.test", log),
	)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewTaxiiController(headers.NewTAXII11Validator(), messages.NewXML11Codec(), catalog, dispatcher, auth, log).RegisterRoutes(app)
	return app
}

func taxiiRequest(t *testing.T, method, path string, msg messages.Message) *http.Request {
	t.Helper()
	var body []byte
	if msg != nil {
		var err error
		body, err = messages.EncodeXML11(msg)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(headers.ContentType, headers.MediaTypeXML)
	req.Header.Set(headers.Accept, headers.MediaTypeXML)
	req.Header.Set(headers.XTAXIIContentType, binding.MessageXML11)
	req.Header.Set(headers.XTAXIIProtocol, binding.ProtocolHTTP)
	req.Header.Set(headers.XTAXIIServices, binding.ServicesV11)
	return req
}

func send(t *testing.T, app *fiber.App, req *http.Request, out interface{}) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, xml.Unmarshal(raw, out), string(raw))
	return resp
}

func stixInbox(id string) *messages.InboxMessage {
	return &messages.InboxMessage{
		Header:                     messages.Header{MessageID: id},
		DestinationCollectionNames: []string{service.DefaultCollectionName},
		ContentBlocks: []messages.ContentBlock{{
			ContentBinding: messages.NewContentBinding(binding.ContentSTIXXML111),
			Content:        messages.NewContent(`<stix:STIX_Package xmlns:stix="http://stix.mitre.org/stix-1"/>`),
		}},
	}
}

func TestTaxii_InboxThenPoll(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	var ack messages.StatusMessage
	resp := send(t, app, taxiiRequest(t, http.MethodPost, "/services/inbox", stixInbox("in-1")), &ack)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(status.TypeSuccess), ack.StatusType)
	assert.Equal(t, "in-1", ack.InResponseTo)
	assert.Equal(t, headers.MediaTypeXML, resp.Header.Get(headers.ContentType))
	assert.Equal(t, binding.MessageXML11, resp.Header.Get(headers.XTAXIIContentType))
	assert.Equal(t, binding.ProtocolHTTP, resp.Header.Get(headers.XTAXIIProtocol))
	assert.Equal(t, binding.ServicesV11, resp.Header.Get(headers.XTAXIIServices))

	poll := &messages.PollRequest{Header: messages.Header{MessageID: "p-1"}, CollectionName: service.DefaultCollectionName}
	var result messages.PollResponse
	send(t, app, taxiiRequest(t, http.MethodPost, "/services/poll", poll), &result)
	assert.Equal(t, "p-1", result.InResponseTo)
	assert.Equal(t, service.DefaultCollectionName, result.CollectionName)
	require.Len(t, result.ContentBlocks, 1)
	assert.Equal(t, binding.ContentSTIXXML111, result.ContentBlocks[0].ContentBinding.BindingID)
}

func TestTaxii_DuplicateInboxMessage(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	var first, second messages.StatusMessage
	send(t, app, taxiiRequest(t, http.MethodPost, "/services/inbox", stixInbox("in-1")), &first)
	send(t, app, taxiiRequest(t, http.MethodPost, "/services/inbox", stixInbox("in-1")), &second)
	assert.Equal(t, string(status.TypeSuccess), first.StatusType)
	assert.Equal(t, string(status.TypeFailure), second.StatusType)
}

func TestTaxii_PollUnknownCollection(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	poll := &messages.PollRequest{Header: messages.Header{MessageID: "p-1"}, CollectionName: "ghost"}
	var out messages.StatusMessage
	resp := send(t, app, taxiiRequest(t, http.MethodPost, "/services/poll", poll), &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(status.TypeNotFound), out.StatusType)
	assert.Equal(t, "p-1", out.InResponseTo)
	assert.Equal(t, []string{"ghost"}, out.DetailValues(status.DetailItem))
}

func TestTaxii_UnknownService(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	var out messages.StatusMessage
	send(t, app, taxiiRequest(t, http.MethodPost, "/services/nowhere", &messages.DiscoveryRequest{Header: messages.Header{MessageID: "d-1"}}), &out)
	assert.Equal(t, string(status.TypeNotFound), out.StatusType)
	assert.Equal(t, "d-1", out.InResponseTo)
}

func TestTaxii_WrongMessageForService(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	var out messages.StatusMessage
	send(t, app, taxiiRequest(t, http.MethodPost, "/services/discovery", stixInbox("in-1")), &out)
	assert.Equal(t, string(status.TypeUnsupportedMessage), out.StatusType)
}

func TestTaxii_EnvelopeRejected(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	tests := []struct {
		name   string
		mutate func(r *http.Request) *http.Request
	}{
		{"missing content type header", func(r *http.Request) *http.Request {
			r.Header.Del(headers.XTAXIIContentType)
			return r
		}},
		{"wrong protocol", func(r *http.Request) *http.Request {
			r.Header.Set(headers.XTAXIIProtocol, binding.ProtocolHTTPS)
			return r
		}},
		{"not a post", func(*http.Request) *http.Request {
			return taxiiRequest(t, http.MethodGet, "/services/discovery", nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.mutate(taxiiRequest(t, http.MethodPost, "/services/discovery", &messages.DiscoveryRequest{Header: messages.Header{MessageID: "d-1"}}))
			var out messages.StatusMessage
			resp := send(t, app, req, &out)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, string(status.TypeBadMessage), out.StatusType)
			assert.Equal(t, unknownRequestID, out.InResponseTo)
		})
	}
}

func TestTaxii_ContentTypeParameters(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	req := taxiiRequest(t, http.MethodPost, "/services/discovery", &messages.DiscoveryRequest{Header: messages.Header{MessageID: "d-1"}})
	req.Header.Set(headers.ContentType, headers.MediaTypeXML+"; charset=utf-8")
	var out messages.DiscoveryResponse
	send(t, app, req, &out)
	assert.Equal(t, "d-1", out.InResponseTo)
	assert.NotEmpty(t, out.ServiceInstances)
}

func TestTaxii_MalformedBody(t *testing.T) {
	app := newTestApp(t, AuthConfig{})

	req := taxiiRequest(t, http.MethodPost, "/services/discovery", nil)
	req.Body = io.NopCloser(bytes.NewReader([]byte("<not-taxii/>")))
	req.ContentLength = int64(len("<not-taxii/>"))
	var out messages.StatusMessage
	send(t, app, req, &out)
	assert.Equal(t, string(status.TypeBadMessage), out.StatusType)
}

func TestTaxii_BearerAuth(t *testing.T) {
	app := newTestApp(t, AuthConfig{Required: true, JwtSecret: testSecret})
	discovery := &messages.DiscoveryRequest{Header: messages.Header{MessageID: "d-1"}}

	var denied messages.StatusMessage
	send(t, app, taxiiRequest(t, http.MethodPost, "/services/discovery", discovery), &denied)
	assert.Equal(t, string(status.TypeUnauthorized), denied.StatusType)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "partner",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := taxiiRequest(t, http.MethodPost, "/services/discovery", discovery)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	var out messages.DiscoveryResponse
	send(t, app, req, &out)
	assert.Equal(t, "d-1", out.InResponseTo)
	assert.Len(t, out.ServiceInstances, 4)
}

func TestSourceIP(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendString(sourceIP(ctx)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "203.0.113.7, 10.0.0.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "203.0.113.7", string(body))
}
