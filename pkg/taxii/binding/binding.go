// Package binding tracks the protocol, message and content binding identifiers
// a TAXII deployment knows about, and decides whether a recipient accepts a
// given content descriptor.
package binding

import (
	"sort"
	"sync"
)

// Category separates the three binding id namespaces.
type Category string

const (
	CategoryProtocol Category = "protocol"
	CategoryMessage  Category = "message"
	CategoryContent  Category = "content"
)

// Well-known identifiers.
const (
	ServicesV11 = "urn:taxii.mitre.org:services:1.1"

	ProtocolHTTP  = "urn:taxii.mitre.org:protocol:http:1.0"
	ProtocolHTTPS = "urn:taxii.mitre.org:protocol:https:1.0"

	MessageXML11 = "urn:taxii.mitre.org:message:xml:1.1"

	ContentSTIXXML10  = "urn:stix.mitre.org:xml:1.0"
	ContentSTIXXML101 = "urn:stix.mitre.org:xml:1.0.1"
	ContentSTIXXML11  = "urn:stix.mitre.org:xml:1.1"
	ContentSTIXXML111 = "urn:stix.mitre.org:xml:1.1.1"
	ContentCAP11      = "urn:oasis:names:tc:emergency:cap:1.1"
	ContentXMLENC     = "http://www.w3.org/2001/04/xmlenc#"
	ContentSMIME      = "application/x-pkcs7-mime"

	QueryFormatDefault = "urn:taxii.mitre.org:query:default:1.0"
)

// ID is a binding identifier with optional human readable metadata.
type ID struct {
	Category    Category
	Value       string
	Title       string
	Description string
}

// Registry holds the known binding ids, keyed by value within each category.
type Registry struct {
	mu  sync.RWMutex
	ids map[Category]map[string]ID
}

func NewRegistry(ids ...ID) *Registry {
	r := &Registry{ids: make(map[Category]map[string]ID)}
	for _, id := range ids {
		r.Register(id)
	}
	return r
}

// DefaultRegistry returns a registry seeded with the bindings this server
// speaks natively.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ID{Category: CategoryProtocol, Value: ProtocolHTTP, Title: "TAXII HTTP Protocol v1.0"},
		ID{Category: CategoryProtocol, Value: ProtocolHTTPS, Title: "TAXII HTTPS Protocol v1.0"},
		ID{Category: CategoryMessage, Value: MessageXML11, Title: "TAXII XML 1.1"},
		ID{Category: CategoryContent, Value: ContentSTIXXML10, Title: "STIX XML 1.0"},
		ID{Category: CategoryContent, Value: ContentSTIXXML101, Title: "STIX XML 1.0.1"},
		ID{Category: CategoryContent, Value: ContentSTIXXML11, Title: "STIX XML 1.1"},
		ID{Category: CategoryContent, Value: ContentSTIXXML111, Title: "STIX XML 1.1.1"},
		ID{Category: CategoryContent, Value: ContentCAP11, Title: "CAP 1.1"},
		ID{Category: CategoryContent, Value: ContentXMLENC, Title: "XML Encryption"},
		ID{Category: CategoryContent, Value: ContentSMIME, Title: "SMIME"},
	)
}

// Register adds or replaces an id.
func (r *Registry) Register(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ids[id.Category] == nil {
		r.ids[id.Category] = make(map[string]ID)
	}
	r.ids[id.Category][id.Value] = id
}

// Lookup returns the id registered under value in category.
func (r *Registry) Lookup(category Category, value string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[category][value]
	return id, ok
}

// Known reports whether value is registered in category.
func (r *Registry) Known(category Category, value string) bool {
	_, ok := r.Lookup(category, value)
	return ok
}

// Values returns the registered values of a category in sorted order.
func (r *Registry) Values(category Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ids[category]))
	for v := range r.ids[category] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Categories lists the namespaces in a stable order.
var Categories = []Category{CategoryProtocol, CategoryMessage, CategoryContent}

// ValidCategory reports whether c names one of the binding namespaces.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// All returns every registered id, ordered by category then value.
func (r *Registry) All() []ID {
	var out []ID
	for _, c := range Categories {
		for _, v := range r.Values(c) {
			id, _ := r.Lookup(c, v)
			out = append(out, id)
		}
	}
	return out
}
