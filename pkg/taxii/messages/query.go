package messages

import (
	"taxii-services/pkg/taxii/query"
)

// Query is a Query element; only the default query format has a body.
type Query struct {
	FormatID string        `xml:"format_id,attr"`
	Default  *DefaultQuery `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Default_Query,omitempty"`
}

type DefaultQuery struct {
	TargetingExpressionID string   `xml:"targeting_expression_id,attr"`
	Criteria              Criteria `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Criteria"`
}

type Criteria struct {
	Operator  string      `xml:"operator,attr"`
	Criteria  []Criteria  `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Criteria,omitempty"`
	Criterion []Criterion `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Criterion,omitempty"`
}

type Criterion struct {
	Negate bool   `xml:"negate,attr"`
	Target string `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Target"`
	Test   Test   `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Test"`
}

type Test struct {
	CapabilityID string      `xml:"capability_id,attr"`
	Relationship string      `xml:"relationship,attr"`
	Parameters   []Parameter `xml:"http://taxii.mitre.org/query/taxii_default_query-1 Parameter,omitempty"`
}

type Parameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// ToQuery converts the wire form into an evaluator query.
func (q *Query) ToQuery() *query.Query {
	if q == nil {
		return nil
	}
	out := &query.Query{FormatID: q.FormatID}
	if q.Default != nil {
		out.TargetingExpressionID = q.Default.TargetingExpressionID
		out.Criteria = q.Default.Criteria.toCriteria()
	}
	return out
}

func (c Criteria) toCriteria() *query.Criteria {
	out := &query.Criteria{Operator: c.Operator}
	for _, child := range c.Criteria {
		out.Criteria = append(out.Criteria, child.toCriteria())
	}
	for _, leaf := range c.Criterion {
		var params map[string]string
		if len(leaf.Test.Parameters) > 0 {
			params = make(map[string]string, len(leaf.Test.Parameters))
			for _, p := range leaf.Test.Parameters {
				params[p.Name] = p.Value
			}
		}
		out.Criterion = append(out.Criterion, &query.Criterion{
			Target: leaf.Target,
			Negate: leaf.Negate,
			Test: query.Test{
				CapabilityID: leaf.Test.CapabilityID,
				Relationship: leaf.Test.Relationship,
				Parameters:   params,
			},
		})
	}
	return out
}

// FromQuery converts an evaluator query back to its wire form.
func FromQuery(q *query.Query) *Query {
	if q == nil {
		return nil
	}
	out := &Query{FormatID: q.FormatID}
	if q.Criteria != nil {
		out.Default = &DefaultQuery{
			TargetingExpressionID: q.TargetingExpressionID,
			Criteria:              fromCriteria(q.Criteria),
		}
	}
	return out
}

func fromCriteria(c *query.Criteria) Criteria {
	out := Criteria{Operator: c.Operator}
	for _, child := range c.Criteria {
		out.Criteria = append(out.Criteria, fromCriteria(child))
	}
	for _, leaf := range c.Criterion {
		wire := Criterion{
			Target: leaf.Target,
			Negate: leaf.Negate,
			Test: Test{
				CapabilityID: leaf.Test.CapabilityID,
				Relationship: leaf.Test.Relationship,
			},
		}
		for _, name := range sortedKeys(leaf.Test.Parameters) {
			wire.Test.Parameters = append(wire.Test.Parameters, Parameter{Name: name, Value: leaf.Test.Parameters[name]})
		}
		out.Criterion = append(out.Criterion, wire)
	}
	return out
}
