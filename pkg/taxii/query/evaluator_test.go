package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxii-services/pkg/taxii/status"
)

// mapDoc serves fixed values per concrete path.
type mapDoc map[string][]string

func (d mapDoc) Values(path string) ([]string, error) {
	return d[path], nil
}

const (
	hashPath    = "//cyboxCommon:Hash/cyboxCommon:Simple_Hash_Value"
	addressPath = "//AddressObject:Address_Value"
)

func leaf(target, relationship string, params map[string]string) *Criterion {
	return &Criterion{
		Target: target,
		Test: Test{
			CapabilityID: CapabilityCore,
			Relationship: relationship,
			Parameters:   params,
		},
	}
}

func TestEvaluateCriterion_Relationships(t *testing.T) {
	doc := mapDoc{
		hashPath:    {"D41D8CD98F00B204E9800998ECF8427E"},
		addressPath: {"10.0.0.1", "42"},
	}

	tests := []struct {
		name      string
		criterion *Criterion
		want      bool
	}{
		{"equals case sensitive hit", leaf(TargetHash, RelEquals, map[string]string{"value": "D41D8CD98F00B204E9800998ECF8427E", "match_type": MatchCaseSensitive}), true},
		{"equals case sensitive miss", leaf(TargetHash, RelEquals, map[string]string{"value": "d41d8cd98f00b204e9800998ecf8427e", "match_type": MatchCaseSensitive}), false},
		{"equals case insensitive", leaf(TargetHash, RelEquals, map[string]string{"value": "d41d8cd98f00b204e9800998ecf8427e", "match_type": MatchCaseInsensitive}), true},
		{"equals number", leaf(TargetAddress, RelEquals, map[string]string{"value": "42.0", "match_type": MatchNumber}), true},
		{"not equals", leaf(TargetHash, RelNotEquals, map[string]string{"value": "abc", "match_type": MatchCaseSensitive}), true},
		{"greater than", leaf(TargetAddress, RelGreaterThan, map[string]string{"value": "41"}), true},
		{"greater than or equal", leaf(TargetAddress, RelGreaterThanOrEq, map[string]string{"value": "42"}), true},
		{"less than", leaf(TargetAddress, RelLessThan, map[string]string{"value": "42"}), false},
		{"less than or equal", leaf(TargetAddress, RelLessThanOrEq, map[string]string{"value": "42"}), true},
		{"exists", leaf(TargetHash, RelExists, nil), true},
		{"does not exist", leaf(TargetHash, RelDoesNotExist, nil), false},
		{"begins with", leaf(TargetAddress, RelBeginsWith, map[string]string{"value": "10.", "case_sensitive": "true"}), true},
		{"ends with folded", leaf(TargetHash, RelEndsWith, map[string]string{"value": "8427e", "case_sensitive": "false"}), true},
		{"ends with case sensitive miss", leaf(TargetHash, RelEndsWith, map[string]string{"value": "8427e", "case_sensitive": "true"}), false},
		{"contains", leaf(TargetHash, RelContains, map[string]string{"value": "98F00", "case_sensitive": "true"}), true},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateCriterion(tt.criterion, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// negation law
			negated := *tt.criterion
			negated.Negate = true
			gotNeg, err := e.EvaluateCriterion(&negated, doc)
			require.NoError(t, err)
			assert.Equal(t, !got, gotNeg)
		})
	}
}

func TestEvaluateCriterion_Errors(t *testing.T) {
	e := NewEvaluator()
	doc := mapDoc{}

	t.Run("unsupported capability module", func(t *testing.T) {
		c := leaf(TargetHash, RelExists, nil)
		c.Test.CapabilityID = "urn:example:capability:regex"
		_, err := e.EvaluateCriterion(c, doc)
		se, ok := status.As(err)
		require.True(t, ok)
		assert.Equal(t, status.TypeUnsupportedCapabilityModule, se.Type)
		assert.Equal(t, CapabilityCore, se.Detail(status.DetailCapabilityModule))
	})

	t.Run("unsupported target", func(t *testing.T) {
		_, err := e.EvaluateCriterion(leaf("//Email_Message/Subject", RelExists, nil), doc)
		se, ok := status.As(err)
		require.True(t, ok)
		assert.Equal(t, status.TypeUnsupportedTargeting, se.Type)
		assert.Equal(t, TargetHash, se.Detail(status.DetailPreferredScope))
		assert.Equal(t, []string{TargetAddress}, se.Details[status.DetailAllowedScope])
	})

	t.Run("unknown relationship", func(t *testing.T) {
		_, err := e.EvaluateCriterion(leaf(TargetHash, "matches regex", map[string]string{"value": "x"}), doc)
		assert.Equal(t, status.KindMalformed, status.KindOf(err))
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := e.EvaluateCriterion(leaf(TargetHash, RelContains, nil), doc)
		assert.Equal(t, status.KindMalformed, status.KindOf(err))
	})

	t.Run("backend failure is not a client error", func(t *testing.T) {
		_, err := e.EvaluateCriterion(leaf(TargetHash, RelExists, nil), failingDoc{})
		require.Error(t, err)
		assert.False(t, status.IsClientError(err))
	})
}

type failingDoc struct{}

func (failingDoc) Values(string) ([]string, error) {
	return nil, errors.New("backend down")
}

func TestEvaluateCriteria_Structure(t *testing.T) {
	e := NewEvaluator()

	_, err := e.EvaluateCriteria(&Criteria{Operator: "XOR", Criterion: []*Criterion{leaf(TargetHash, RelExists, nil)}}, mapDoc{})
	assert.Equal(t, status.KindMalformed, status.KindOf(err))

	_, err = e.EvaluateCriteria(&Criteria{Operator: OperatorAnd}, mapDoc{})
	assert.Equal(t, status.KindMalformed, status.KindOf(err))
}

func TestEvaluateCriteria_ShortCircuit(t *testing.T) {
	doc := mapDoc{addressPath: {"10.0.0.1"}}
	tree := &Criteria{
		Operator: OperatorOr,
		Criterion: []*Criterion{
			leaf(TargetHash, RelExists, nil),
			leaf(TargetAddress, RelExists, nil),
			leaf("//Unsupported/Target", RelExists, nil),
		},
	}

	got, err := NewEvaluator().EvaluateCriteria(tree, doc)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateCriteria_NestedAndVacuous(t *testing.T) {
	doc := mapDoc{addressPath: {"10.0.0.1"}}
	e := NewEvaluator()

	nested := &Criteria{
		Operator: OperatorAnd,
		Criteria: []*Criteria{{
			Operator:  OperatorOr,
			Criterion: []*Criterion{leaf(TargetHash, RelExists, nil), leaf(TargetAddress, RelExists, nil)},
		}},
		Criterion: []*Criterion{leaf(TargetHash, RelDoesNotExist, nil)},
	}
	got, err := e.EvaluateCriteria(nested, doc)
	require.NoError(t, err)
	assert.True(t, got)

	allFalse := &Criteria{Operator: OperatorOr, Criterion: []*Criterion{leaf(TargetHash, RelExists, nil)}}
	got, err = e.EvaluateCriteria(allFalse, doc)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluate_AndWithOneFailingLeaf(t *testing.T) {
	doc := mapDoc{
		hashPath:    {"abc123"},
		addressPath: {"192.168.1.1"},
	}
	q := &Query{
		FormatID:              FormatDefault,
		TargetingExpressionID: TargetingSTIX111,
		Criteria: &Criteria{
			Operator: OperatorAnd,
			Criterion: []*Criterion{
				leaf(TargetHash, RelEquals, map[string]string{"value": "abc123", "match_type": MatchCaseSensitive}),
				leaf(TargetAddress, RelBeginsWith, map[string]string{"value": "10.", "case_sensitive": "true"}),
			},
		},
	}

	e := NewEvaluator()
	require.True(t, e.Supported(q))

	first, err := e.Evaluate(q, doc)
	require.NoError(t, err)
	assert.False(t, first)

	second, err := e.Evaluate(q, doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewEvaluator_WithTarget(t *testing.T) {
	e := NewEvaluator(WithTarget("//Domain_Name/Value", "//DomainNameObj:Value"))
	doc := mapDoc{"//DomainNameObj:Value": {"example.com"}}

	got, err := e.EvaluateCriterion(leaf("//Domain_Name/Value", RelEndsWith, map[string]string{"value": ".com"}), doc)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluator_Scopes(t *testing.T) {
	preferred, allowed := NewEvaluator(WithTarget("//Domain_Name/Value", "//DomainNameObj:Value")).Scopes()
	assert.Equal(t, TargetHash, preferred)
	assert.Equal(t, []string{TargetAddress, "//Domain_Name/Value"}, allowed)
}
