package xmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxii-services/pkg/taxii/query"
)

const observable = `<stix:STIX_Package
    xmlns:stix="http://stix.mitre.org/stix-1"
    xmlns:cybox="http://cybox.mitre.org/cybox-2"
    xmlns:cyboxCommon="http://cybox.mitre.org/common-2"
    xmlns:AddressObj="http://cybox.mitre.org/objects#AddressObject-2"
    xmlns:FileObj="http://cybox.mitre.org/objects#FileObject-2">
  <stix:Observables>
    <cybox:Observable>
      <cybox:Object>
        <cybox:Properties>
          <AddressObj:Address_Value>10.0.0.1</AddressObj:Address_Value>
        </cybox:Properties>
      </cybox:Object>
    </cybox:Observable>
    <cybox:Observable>
      <cybox:Object>
        <cybox:Properties>
          <FileObj:Hashes>
            <cyboxCommon:Hash>
              <cyboxCommon:Simple_Hash_Value>d41d8cd98f00b204e9800998ecf8427e</cyboxCommon:Simple_Hash_Value>
            </cyboxCommon:Hash>
          </FileObj:Hashes>
        </cybox:Properties>
      </cybox:Object>
    </cybox:Observable>
  </stix:Observables>
</stix:STIX_Package>`

func TestDocument_Values(t *testing.T) {
	c := NewCompiler(query.Namespaces)

	doc, ok := c.Parse(observable)
	require.True(t, ok)

	values, err := doc.Values("//AddressObject:Address_Value")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1"}, values)

	values, err = doc.Values("//cyboxCommon:Hash/cyboxCommon:Simple_Hash_Value")
	require.NoError(t, err)
	assert.Equal(t, []string{"d41d8cd98f00b204e9800998ecf8427e"}, values)

	values, err = doc.Values("//cyboxCommon:Hash/cyboxCommon:Hash_Type")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestCompiler_ParseNonXML(t *testing.T) {
	c := NewCompiler(query.Namespaces)

	_, ok := c.Parse("just some text")
	assert.False(t, ok)

	_, ok = c.Parse("")
	assert.False(t, ok)
}

func TestDocument_WithEvaluator(t *testing.T) {
	c := NewCompiler(query.Namespaces)
	doc, ok := c.Parse(observable)
	require.True(t, ok)

	q := &query.Query{
		FormatID:              query.FormatDefault,
		TargetingExpressionID: query.TargetingSTIX111,
		Criteria: &query.Criteria{
			Operator: query.OperatorAnd,
			Criterion: []*query.Criterion{
				{Target: query.TargetAddress, Test: query.Test{CapabilityID: query.CapabilityCore, Relationship: query.RelBeginsWith, Parameters: map[string]string{"value": "10.", "case_sensitive": "true"}}},
				{Target: query.TargetHash, Test: query.Test{CapabilityID: query.CapabilityCore, Relationship: query.RelEquals, Parameters: map[string]string{"value": "D41D8CD98F00B204E9800998ECF8427E", "match_type": query.MatchCaseInsensitive}}},
			},
		},
	}

	got, err := query.NewEvaluator().Evaluate(q, doc)
	require.NoError(t, err)
	assert.True(t, got)
}
