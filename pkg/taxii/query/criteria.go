// Package query evaluates TAXII default query criteria trees against parsed
// documents. Parsing is left to the caller through the Document interface.
package query

// Operators.
const (
	OperatorAnd = "AND"
	OperatorOr  = "OR"
)

// Identifiers understood by the evaluator.
const (
	FormatDefault      = "urn:taxii.mitre.org:query:default:1.0"
	CapabilityCore     = "urn:taxii.mitre.org:query:capability:core-1"
	TargetingSTIX111   = "urn:stix.mitre.org:xml:1.1.1"
	ParamValue         = "value"
	ParamMatchType     = "match_type"
	ParamCaseSensitive = "case_sensitive"
)

// Match types for equals / not equals.
const (
	MatchCaseSensitive   = "case_sensitive_string"
	MatchCaseInsensitive = "case_insensitive_string"
	MatchNumber          = "number"
)

// Relationships of the core capability module.
const (
	RelEquals          = "equals"
	RelNotEquals       = "not equals"
	RelGreaterThan     = "greater than"
	RelGreaterThanOrEq = "greater than or equal"
	RelLessThan        = "less than"
	RelLessThanOrEq    = "less than or equal"
	RelExists          = "exists"
	RelDoesNotExist    = "does not exist"
	RelBeginsWith      = "begins with"
	RelEndsWith        = "ends with"
	RelContains        = "contains"
)

// Query is a default query: the targeting expression id plus the criteria tree.
type Query struct {
	FormatID              string    `json:"format_id"`
	TargetingExpressionID string    `json:"targeting_expression_id"`
	Criteria              *Criteria `json:"criteria"`
}

// Criteria is an AND/OR node over child criteria and criterion leaves.
type Criteria struct {
	Operator  string       `json:"operator"`
	Criteria  []*Criteria  `json:"criteria,omitempty"`
	Criterion []*Criterion `json:"criterion,omitempty"`
}

// Criterion is a leaf test against one target.
type Criterion struct {
	Target string `json:"target"`
	Test   Test   `json:"test"`
	Negate bool   `json:"negate,omitempty"`
}

// Test names the capability module, relationship and parameters of a leaf.
type Test struct {
	CapabilityID string            `json:"capability_id"`
	Relationship string            `json:"relationship"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

// Document is the predicate backend the evaluator runs against. Values returns
// the text content of every node the concrete path selects.
type Document interface {
	Values(path string) ([]string, error)
}
