package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"taxii-services/pkg/taxii/status"
)

// Namespaces maps the prefixes used by the concrete target paths.
var Namespaces = map[string]string{
	"AddressObject": "http://cybox.mitre.org/objects#AddressObject-2",
	"cyboxCommon":   "http://cybox.mitre.org/common-2",
}

// Default scopes reported when a targeting expression is not supported.
const (
	TargetHash    = "//Hash/Simple_Hash_Value"
	TargetAddress = "//Address_Value"
)

// Evaluator walks criteria trees. The target table is fixed at construction.
type Evaluator struct {
	targets   map[string]string
	preferred string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTarget maps an abstract target to a concrete document path.
func WithTarget(target, path string) Option {
	return func(e *Evaluator) {
		e.targets[target] = path
	}
}

// WithPreferredScope overrides the scope advertised as preferred.
func WithPreferredScope(target string) Option {
	return func(e *Evaluator) {
		e.preferred = target
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		targets: map[string]string{
			TargetAddress: "//AddressObject:Address_Value",
			TargetHash:    "//cyboxCommon:Hash/cyboxCommon:Simple_Hash_Value",
		},
		preferred: TargetHash,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether a query's format and targeting expression can be
// evaluated at all.
func (e *Evaluator) Supported(q *Query) bool {
	return q != nil && q.FormatID == FormatDefault && q.TargetingExpressionID == TargetingSTIX111
}

// Evaluate runs the query's criteria against doc.
func (e *Evaluator) Evaluate(q *Query, doc Document) (bool, error) {
	if q == nil || q.Criteria == nil {
		return false, status.Malformed("Query has no criteria")
	}
	return e.EvaluateCriteria(q.Criteria, doc)
}

// EvaluateCriteria evaluates child criteria first, then criterion leaves,
// stopping at the first child that decides the operator.
func (e *Evaluator) EvaluateCriteria(c *Criteria, doc Document) (bool, error) {
	if c.Operator != OperatorAnd && c.Operator != OperatorOr {
		return false, status.Malformed("Operator was not OR or AND")
	}
	if len(c.Criteria)+len(c.Criterion) == 0 {
		return false, status.Malformed("No child Criteria or Criterion")
	}

	for _, child := range c.Criteria {
		v, err := e.EvaluateCriteria(child, doc)
		if err != nil {
			return false, err
		}
		if decided(c.Operator, v) {
			return v, nil
		}
	}
	for _, child := range c.Criterion {
		v, err := e.EvaluateCriterion(child, doc)
		if err != nil {
			return false, err
		}
		if decided(c.Operator, v) {
			return v, nil
		}
	}
	return c.Operator == OperatorAnd, nil
}

func decided(operator string, v bool) bool {
	return (operator == OperatorOr && v) || (operator == OperatorAnd && !v)
}

// EvaluateCriterion evaluates one leaf, applying its negate flag.
func (e *Evaluator) EvaluateCriterion(c *Criterion, doc Document) (bool, error) {
	if c.Test.CapabilityID != CapabilityCore {
		return false, status.UnsupportedCapabilityModule(CapabilityCore)
	}
	path, err := e.resolve(c.Target)
	if err != nil {
		return false, err
	}
	pred, err := buildPredicate(c.Test.Relationship, c.Test.Parameters)
	if err != nil {
		return false, err
	}

	values, err := doc.Values(path)
	if err != nil {
		return false, fmt.Errorf("evaluate target %s: %w", c.Target, err)
	}
	result := pred(values)
	if c.Negate {
		return !result, nil
	}
	return result, nil
}

func (e *Evaluator) resolve(target string) (string, error) {
	if path, ok := e.targets[target]; ok {
		return path, nil
	}
	return "", status.UnsupportedTargeting(target, e.preferred, e.allowed())
}

func (e *Evaluator) allowed() []string {
	out := make([]string, 0, len(e.targets))
	for t := range e.targets {
		if t != e.preferred {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

type predicate func(values []string) bool

// anyValue matches when at least one selected node satisfies test.
func anyValue(test func(string) bool) predicate {
	return func(values []string) bool {
		for _, v := range values {
			if test(v) {
				return true
			}
		}
		return false
	}
}

var relationships = map[string]bool{
	RelEquals: true, RelNotEquals: true,
	RelGreaterThan: true, RelGreaterThanOrEq: true, RelLessThan: true, RelLessThanOrEq: true,
	RelExists: true, RelDoesNotExist: true,
	RelBeginsWith: true, RelEndsWith: true, RelContains: true,
}

func buildPredicate(relationship string, params map[string]string) (predicate, error) {
	if !relationships[relationship] {
		return nil, status.Malformed("Relationship %q not in CORE capability module", relationship)
	}
	value, hasValue := params[ParamValue]

	switch relationship {
	case RelExists:
		return func(values []string) bool { return len(values) > 0 }, nil
	case RelDoesNotExist:
		return func(values []string) bool { return len(values) == 0 }, nil
	}

	if !hasValue {
		return nil, status.Malformed("Relationship %q requires a value parameter", relationship)
	}

	switch relationship {
	case RelEquals, RelNotEquals:
		eq, err := equality(params[ParamMatchType], value)
		if err != nil {
			return nil, err
		}
		if relationship == RelNotEquals {
			return anyValue(func(s string) bool { return !eq(s) }), nil
		}
		return anyValue(eq), nil

	case RelGreaterThan, RelGreaterThanOrEq, RelLessThan, RelLessThanOrEq:
		want, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, status.Malformed("Relationship %q requires a numeric value", relationship)
		}
		cmp := numeric(relationship)
		return anyValue(func(s string) bool {
			got, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return err == nil && cmp(got, want)
		}), nil

	case RelBeginsWith, RelEndsWith, RelContains:
		fold, err := caseFolding(params[ParamCaseSensitive])
		if err != nil {
			return nil, err
		}
		want := fold(value)
		var op func(s, substr string) bool
		switch relationship {
		case RelBeginsWith:
			op = strings.HasPrefix
		case RelEndsWith:
			op = strings.HasSuffix
		default:
			op = strings.Contains
		}
		return anyValue(func(s string) bool { return op(fold(s), want) }), nil
	}
	return nil, status.Malformed("Relationship %q not in CORE capability module", relationship)
}

func equality(matchType, value string) (func(string) bool, error) {
	switch matchType {
	case "", MatchCaseSensitive:
		return func(s string) bool { return s == value }, nil
	case MatchCaseInsensitive:
		want := strings.ToLower(value)
		return func(s string) bool { return strings.ToLower(s) == want }, nil
	case MatchNumber:
		want, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, status.Malformed("match_type number requires a numeric value")
		}
		return func(s string) bool {
			got, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return err == nil && got == want
		}, nil
	default:
		return nil, status.Malformed("Unknown match_type %q", matchType)
	}
}

func caseFolding(caseSensitive string) (func(string) string, error) {
	switch caseSensitive {
	case "", "true":
		return func(s string) string { return s }, nil
	case "false":
		return strings.ToLower, nil
	default:
		return nil, status.Malformed("case_sensitive must be true or false, got %q", caseSensitive)
	}
}

func numeric(relationship string) func(got, want float64) bool {
	switch relationship {
	case RelGreaterThan:
		return func(got, want float64) bool { return got > want }
	case RelGreaterThanOrEq:
		return func(got, want float64) bool { return got >= want }
	case RelLessThan:
		return func(got, want float64) bool { return got < want }
	default:
		return func(got, want float64) bool { return got <= want }
	}
}

// Scopes returns the preferred targeting scope and the other allowed ones.
func (e *Evaluator) Scopes() (preferred string, allowed []string) {
	return e.preferred, e.allowed()
}
