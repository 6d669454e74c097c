// Package headers checks the transport-level envelope of a TAXII request
// before any deserialization happens.
package headers

import (
	"net/http"
	"strings"

	"taxii-services/pkg/taxii/binding"
	"taxii-services/pkg/taxii/status"
)

// Header names.
const (
	ContentType       = "Content-Type"
	Accept            = "Accept"
	XTAXIIContentType = "X-TAXII-Content-Type"
	XTAXIIProtocol    = "X-TAXII-Protocol"
	XTAXIIAccept      = "X-TAXII-Accept"
	XTAXIIServices    = "X-TAXII-Services"

	MediaTypeXML = "application/xml"
)

// Rule constrains one header. An empty Values list allows any value.
type Rule struct {
	Name     string
	Required bool
	Values   []string
}

func (r Rule) allows(v string) bool {
	if len(r.Values) == 0 {
		return true
	}
	for _, allowed := range r.Values {
		if v == allowed {
			return true
		}
	}
	return false
}

// RequestMeta is the part of an inbound request the validator looks at.
type RequestMeta struct {
	Headers http.Header
	Secure  bool
	Method  string
	BodyLen int
}

// Validator applies header rules, then transport, method and body checks.
type Validator struct {
	rules []Rule
}

func NewValidator(rules ...Rule) *Validator {
	return &Validator{rules: rules}
}

// TAXII11Rules are the header rules for the TAXII 1.1 XML binding.
func TAXII11Rules() []Rule {
	return []Rule{
		{Name: ContentType, Required: true, Values: []string{MediaTypeXML}},
		{Name: Accept, Values: []string{MediaTypeXML}},
		{Name: XTAXIIContentType, Required: true, Values: []string{binding.MessageXML11}},
		{Name: XTAXIIProtocol, Required: true, Values: []string{binding.ProtocolHTTP, binding.ProtocolHTTPS}},
		{Name: XTAXIIAccept, Values: []string{binding.MessageXML11}},
		{Name: XTAXIIServices, Values: []string{binding.ServicesV11}},
	}
}

// NewTAXII11Validator returns a validator for TAXII 1.1 service paths.
func NewTAXII11Validator() *Validator {
	return NewValidator(TAXII11Rules()...)
}

// Validate returns nil or a HeaderInvalid status error for the first
// violated rule.
func (v *Validator) Validate(meta RequestMeta) error {
	var missing []string
	for _, r := range v.rules {
		if r.Required && meta.Headers.Get(r.Name) == "" {
			missing = append(missing, r.Name)
		}
	}
	if len(missing) > 0 {
		return status.HeaderInvalid("Required header(s) not present: %s", strings.Join(missing, ", "))
	}

	for _, r := range v.rules {
		value := meta.Headers.Get(r.Name)
		if value == "" {
			continue
		}
		if r.Name == ContentType || r.Name == Accept {
			value = MediaType(value)
		}
		if !r.allows(value) {
			return status.HeaderInvalid("Header value not in allowed list. Header name: %s; Allowed values: %s",
				r.Name, strings.Join(r.Values, ", "))
		}
	}

	if protocol := meta.Headers.Get(XTAXIIProtocol); protocol != "" {
		declaredSecure := protocol == binding.ProtocolHTTPS
		if declaredSecure != meta.Secure {
			return status.HeaderInvalid("%s header declares %s but the request was made over %s",
				XTAXIIProtocol, transportName(declaredSecure), transportName(meta.Secure))
		}
	}

	if meta.Method != http.MethodPost {
		return status.HeaderInvalid("Request method was not POST")
	}

	if meta.BodyLen == 0 {
		return status.HeaderInvalid("Request body is empty")
	}
	return nil
}

// MediaType drops parameters such as charset from a media type header value.
func MediaType(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

func transportName(secure bool) string {
	if secure {
		return "HTTPS"
	}
	return "HTTP"
}
