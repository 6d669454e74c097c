package service

import (
	"context"
	"strings"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/messages"
)

// TaxiiRequest is one decoded TAXII message addressed to a service.
type TaxiiRequest struct {
	Service   *entity.Service
	Message   messages.Message
	SourceIP  string
	Submitter string
}

// Handler answers a TAXII request with a response message. Client-visible
// failures are returned as *status.Error.
type Handler func(ctx context.Context, req *TaxiiRequest) (messages.Message, error)

// ServicesPrefix is the route every TAXII service lives under.
const ServicesPrefix = "/services/"

// serviceAddress is the absolute URL clients use to reach a service.
func serviceAddress(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + ServicesPrefix + path
}

// protocolBinding picks the protocol binding advertised for a service,
// preferring HTTPS when the base URL is secure.
func protocolBinding(baseURL string, service *entity.Service) string {
	want := binding.ProtocolHTTP
	if strings.HasPrefix(baseURL, "https://") {
		want = binding.ProtocolHTTPS
	}
	for _, b := range service.ProtocolBindings {
		if b == want {
			return b
		}
	}
	if len(service.ProtocolBindings) > 0 {
		return service.ProtocolBindings[0]
	}
	return want
}

func serviceContact(baseURL string, service *entity.Service) messages.ServiceContact {
	return messages.ServiceContact{
		ProtocolBinding: protocolBinding(baseURL, service),
		Address:         serviceAddress(baseURL, service.Path),
		MessageBindings: service.MessageBindings,
	}
}

func descriptorOf(cb messages.ContentBinding) binding.ContentDescriptor {
	return binding.ContentDescriptor{Binding: cb.BindingID, Subtypes: cb.SubtypeIDs()}
}

func descriptorsOf(cbs []messages.ContentBinding) []binding.ContentDescriptor {
	out := make([]binding.ContentDescriptor, 0, len(cbs))
	for _, cb := range cbs {
		out = append(out, descriptorOf(cb))
	}
	return out
}

func wireBindings(descriptors []binding.ContentDescriptor) []messages.ContentBinding {
	out := make([]messages.ContentBinding, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, messages.NewContentBinding(d.Binding, d.Subtypes...))
	}
	return out
}

// advertisedBindings renders a supported content set; accept-all is an empty list.
func advertisedBindings(supported binding.SupportedContent) []messages.ContentBinding {
	descriptors, acceptAll := binding.Advertise(supported)
	if acceptAll {
		return nil
	}
	return wireBindings(descriptors)
}

func wireBlock(b *entity.ContentBlock) messages.ContentBlock {
	ts := b.TimestampLabel
	return messages.ContentBlock{
		ContentBinding: messages.NewContentBinding(b.ContentBinding, b.Subtypes...),
		Content:        messages.NewContent(b.Payload),
		TimestampLabel: &ts,
		Message:        b.Message,
		Padding:        b.Padding,
	}
}

// inclusiveBegin converts an exclusive lower bound to the inclusive bound
// echoed in poll responses.
func inclusiveBegin(exclusive *time.Time) *time.Time {
	if exclusive == nil {
		return nil
	}
	t := exclusive.Add(time.Millisecond)
	return &t
}
