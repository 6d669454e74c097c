package controller

import (
	"errors"
	"net/http"
	"strings"

	"taxii-services/internal/pkg/logger"
	"taxii-services/internal/pkg/serverutils"
	"taxii-services/internal/service"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/headers"
	"taxii-services/pkg/taxii/messages"
	"taxii-services/pkg/taxii/status"

	"github.com/gofiber/fiber/v2"
)

// unknownRequestID answers requests whose message id could not be read.
const unknownRequestID = "0"

type ITaxiiController interface {
	RegisterRoutes(r fiber.Router)
	Handle(ctx *fiber.Ctx) error
}

// AuthConfig turns on bearer token checks for every TAXII service.
type AuthConfig struct {
	Required  bool
	JwtSecret string
}

type taxiiController struct {
	validator  *headers.Validator
	codec      *messages.Codec
	catalog    service.IServiceCatalogService
	dispatcher *service.Dispatcher
	auth       AuthConfig
	logger     logger.ILogger
}

func NewTaxiiController(
	validator *headers.Validator,
	codec *messages.Codec,
	catalog service.IServiceCatalogService,
	dispatcher *service.Dispatcher,
	auth AuthConfig,
	log logger.ILogger,
) ITaxiiController {
	return &taxiiController{
		validator:  validator,
		codec:      codec,
		catalog:    catalog,
		dispatcher: dispatcher,
		auth:       auth,
		logger:     log,
	}
}

func (c *taxiiController) RegisterRoutes(r fiber.Router) {
	// Every method is routed so non-POST requests get a TAXII status message.
	r.All(strings.TrimSuffix(service.ServicesPrefix, "/")+"/:path", c.Handle)
}

func (c *taxiiController) Handle(ctx *fiber.Ctx) error {
	path := ctx.Params("path")
	secure := ctx.Protocol() == "https"

	// 1. Transport envelope
	meta := headers.RequestMeta{
		Headers: requestHeaders(ctx),
		Secure:  secure,
		Method:  ctx.Method(),
		BodyLen: len(ctx.Body()),
	}
	if err := c.validator.Validate(meta); err != nil {
		return c.renderError(ctx, path, unknownRequestID, err)
	}

	// 2. Optional bearer auth
	submitter := ""
	if c.auth.Required {
		sub, err := serverutils.BearerSubject(ctx.Get(fiber.HeaderAuthorization), c.auth.JwtSecret)
		if err != nil {
			return c.renderError(ctx, path, unknownRequestID, status.Unauthorized("Authentication failed: %v", err))
		}
		submitter = sub
	}

	// 3. Deserialize through the injected codec table
	msg, err := c.codec.Decode(headers.MediaType(ctx.Get(fiber.HeaderContentType)), ctx.Get(headers.XTAXIIContentType), ctx.Body())
	if err != nil {
		return c.renderError(ctx, path, unknownRequestID, err)
	}
	requestID := msg.ID()
	if requestID == "" {
		requestID = unknownRequestID
	}
	if err := serverutils.ValidateRequest(msg); err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			err = status.Malformed("Invalid %s: %s", msg.Kind(), fe.Message)
		}
		return c.renderError(ctx, path, requestID, err)
	}

	// 4. Resolve the addressed service
	svc, err := c.catalog.FindByPath(ctx.UserContext(), path)
	if err != nil {
		return c.renderError(ctx, path, requestID, err)
	}
	if svc == nil {
		return c.renderError(ctx, path, requestID, status.NotFound(path, "The service %s was not found", path))
	}

	// 5. Dispatch
	handler, err := c.dispatcher.Dispatch(svc, msg)
	if err != nil {
		return c.renderError(ctx, path, requestID, err)
	}
	resp, err := handler(ctx.UserContext(), &service.TaxiiRequest{
		Service:   svc,
		Message:   msg,
		SourceIP:  sourceIP(ctx),
		Submitter: submitter,
	})
	if err != nil {
		return c.renderError(ctx, path, requestID, err)
	}

	c.logger.Debug("Taxii", "Request handled", map[string]interface{}{
		"service":  path,
		"request":  msg.Kind().String(),
		"response": resp.Kind().String(),
	})
	return c.render(ctx, resp)
}

// renderError turns any error into a Status_Message. Internal failures are
// logged and reach the client only as a generic FAILURE.
func (c *taxiiController) renderError(ctx *fiber.Ctx, path, inResponseTo string, err error) error {
	se := status.Classify(err)
	switch se.Kind {
	case status.KindInternal:
		c.logger.Error("Taxii", "Internal error while handling request", map[string]interface{}{
			"service": path,
			"error":   err.Error(),
		})
	case status.KindPending:
	default:
		c.logger.Debug("Taxii", "Request rejected", map[string]interface{}{
			"service": path,
			"status":  string(se.Type),
			"message": se.Message,
		})
	}
	return c.render(ctx, messages.NewStatusMessage(inResponseTo, se))
}

func (c *taxiiController) render(ctx *fiber.Ctx, msg messages.Message) error {
	body, err := c.codec.Encode(headers.MediaTypeXML, binding.MessageXML11, msg)
	if err != nil {
		c.logger.Error("Taxii", "Failed to encode response", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusInternalServerError, "failed to encode response")
	}

	protocol := binding.ProtocolHTTP
	if ctx.Protocol() == "https" {
		protocol = binding.ProtocolHTTPS
	}
	ctx.Set(fiber.HeaderContentType, headers.MediaTypeXML)
	ctx.Set(headers.XTAXIIContentType, binding.MessageXML11)
	ctx.Set(headers.XTAXIIProtocol, protocol)
	ctx.Set(headers.XTAXIIServices, binding.ServicesV11)
	return ctx.Status(fiber.StatusOK).Send(body)
}

func requestHeaders(ctx *fiber.Ctx) http.Header {
	h := make(http.Header)
	ctx.Request().Header.VisitAll(func(key, value []byte) {
		h.Add(string(key), string(value))
	})
	return h
}

// sourceIP prefers the first X-Forwarded-For hop over the peer address.
func sourceIP(ctx *fiber.Ctx) string {
	if fwd := ctx.Get(fiber.HeaderXForwardedFor); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	return ctx.IP()
}
