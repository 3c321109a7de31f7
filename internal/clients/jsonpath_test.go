package clients

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var doc interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestFloat(t *testing.T) {
	doc := decode(t, `{"a":{"b":1.5,"c":"2.5","d":"NA"}}`)

	v, ok := Float(doc, "$.a.b")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = Float(doc, "$.a.c")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	_, ok = Float(doc, "$.a.d")
	assert.False(t, ok)

	_, ok = Float(doc, "$.a.missing")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	doc := decode(t, `{"meta":{"longName":"Apple Inc.","shortName":"  "}}`)

	s, ok := String(doc, "$.meta.longName")
	assert.True(t, ok)
	assert.Equal(t, "Apple Inc.", s)

	_, ok = String(doc, "$.meta.shortName")
	assert.False(t, ok)
}

func TestLastNumber(t *testing.T) {
	doc := decode(t, `{"close":[1.0, 2.0, null, null]}`)
	v, ok := LastNumber(doc, "$.close")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = LastNumber(decode(t, `{"close":[null]}`), "$.close")
	assert.False(t, ok)
}
