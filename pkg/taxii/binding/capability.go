package binding

import "sort"

// ContentDescriptor is a content binding plus its subtype qualifiers. No
// subtypes means "this binding, unqualified".
type ContentDescriptor struct {
	Binding  string
	Subtypes []string
}

// Pair is one supported (binding, subtype) entry. An empty Subtype means any
// subtype of Binding is accepted.
type Pair struct {
	Binding string `json:"binding"`
	Subtype string `json:"subtype,omitempty"`
}

// SupportedContent is what an inbox service or a collection accepts: either
// everything, or an explicit set of pairs.
type SupportedContent struct {
	AcceptAll bool   `json:"accept_all"`
	Pairs     []Pair `json:"pairs,omitempty"`
}

// AcceptAllContent is the accept-everything sentinel.
func AcceptAllContent() SupportedContent {
	return SupportedContent{AcceptAll: true}
}

// Only builds a set from explicit pairs.
func Only(pairs ...Pair) SupportedContent {
	return SupportedContent{Pairs: pairs}
}

func (s SupportedContent) has(b, subtype string) bool {
	for _, p := range s.Pairs {
		if p.Binding == b && p.Subtype == subtype {
			return true
		}
	}
	return false
}

// Supports decides whether an entity with the given supported content
// accepts descriptor. Bindings unknown to the registry are never accepted
// unless the entity accepts all content.
func Supports(reg *Registry, supported SupportedContent, descriptor ContentDescriptor) bool {
	if supported.AcceptAll {
		return true
	}
	if reg == nil || !reg.Known(CategoryContent, descriptor.Binding) {
		return false
	}
	// an unqualified entry accepts narrower subtyped traffic too
	if supported.has(descriptor.Binding, "") {
		return true
	}
	for _, st := range descriptor.Subtypes {
		if st != "" && supported.has(descriptor.Binding, st) {
			return true
		}
	}
	return false
}

// Advertise returns the descriptors an entity announces to clients, or
// acceptAll when the entity takes everything. Descriptors are ordered by
// binding; a binding with an unqualified entry advertises no subtypes.
func Advertise(supported SupportedContent) (descriptors []ContentDescriptor, acceptAll bool) {
	if supported.AcceptAll {
		return nil, true
	}

	order := make([]string, 0)
	subtypes := make(map[string][]string)
	unqualified := make(map[string]bool)
	for _, p := range supported.Pairs {
		if _, seen := subtypes[p.Binding]; !seen && !unqualified[p.Binding] {
			order = append(order, p.Binding)
			subtypes[p.Binding] = nil
		}
		if p.Subtype == "" {
			unqualified[p.Binding] = true
			continue
		}
		subtypes[p.Binding] = append(subtypes[p.Binding], p.Subtype)
	}
	sort.Strings(order)

	descriptors = make([]ContentDescriptor, 0, len(order))
	for _, b := range order {
		d := ContentDescriptor{Binding: b}
		if !unqualified[b] {
			d.Subtypes = subtypes[b]
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, false
}

// Bindings flattens the advertised binding ids, used for status details.
func Bindings(supported SupportedContent) []string {
	descriptors, _ := Advertise(supported)
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Binding)
	}
	return out
}
