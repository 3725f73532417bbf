package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/sitecloner/internal/testutil"
)

func newMaxReach(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator("digital-marketing/maxreach")
	require.NoError(t, err)
	return v
}

func TestNewValidatorUnknownTemplate(t *testing.T) {
	_, err := NewValidator("restaurants/bistro")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestValidateFixture(t *testing.T) {
	v := newMaxReach(t)

	res := v.Validate(testutil.SiteContentJSON())
	assert.True(t, res.Valid, "%+v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "MaxReachSiteContent", v.Document().Name)
	assert.Equal(t, "object", v.Document().Tree["type"])
}

func TestValidateReportsAllViolations(t *testing.T) {
	v := newMaxReach(t)

	doc := testutil.SiteContentMap()
	doc["unexpected"] = true
	faq := doc["faq"].(map[string]interface{})
	items := faq["faqItems"].([]interface{})
	faq["faqItems"] = items[:7]
	delete(doc["header"].(map[string]interface{}), "companyName")

	res := v.Validate(testutil.MustJSON(doc))
	require.False(t, res.Valid)
	require.GreaterOrEqual(t, len(res.Errors), 3)

	paths := map[string]bool{}
	for _, e := range res.Errors {
		paths[e.InstancePath] = true
	}
	assert.True(t, paths["/faq/faqItems"], "faq cardinality violation expected: %+v", res.Errors)
	assert.True(t, paths["/header"], "missing companyName expected: %+v", res.Errors)
	assert.True(t, paths[""], "additional property at root expected: %+v", res.Errors)
}

func TestValidateIsDeterministic(t *testing.T) {
	v := newMaxReach(t)

	doc := testutil.SiteContentMap()
	doc["testimonials"].(map[string]interface{})["testimonials"] = []interface{}{}
	doc["hero"].(map[string]interface{})["description"] = 42
	raw := testutil.MustJSON(doc)

	first := v.Validate(raw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, v.Validate(raw))
	}
}

func TestValidateStringBounds(t *testing.T) {
	v := newMaxReach(t)

	doc := testutil.SiteContentMap()
	long := make([]byte, 61)
	for i := range long {
		long[i] = 'a'
	}
	doc["header"].(map[string]interface{})["companyName"] = string(long)

	res := v.Validate(testutil.MustJSON(doc))
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "/header/companyName", res.Errors[0].InstancePath)
}

func TestValidateInvalidJSON(t *testing.T) {
	v := newMaxReach(t)

	res := v.Validate([]byte(`{"header": `))
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "invalid JSON")
}

func TestValidateRoundTrip(t *testing.T) {
	v := newMaxReach(t)

	var decoded interface{}
	require.NoError(t, json.Unmarshal(testutil.SiteContentJSON(), &decoded))
	reencoded, err := json.MarshalIndent(decoded, "", "  ")
	require.NoError(t, err)

	assert.True(t, v.Validate(reencoded).Valid)
}

func TestTopLevelKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, TopLevelKeys([]byte(`{"b":1,"a":2}`)))
	assert.Nil(t, TopLevelKeys([]byte(`[1,2]`)))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Result: Result{Errors: make([]ErrorDetail, 2)}}
	assert.Equal(t, "content failed schema validation with 2 issue(s)", err.Error())
}
