package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFieldsPreserveInsertionOrder(t *testing.T) {
	t.Parallel()

	fields := CustomFields{
		{Key: "setup_grade", Value: "A"},
		{Key: "confidence", Value: "7"},
		{Key: "followed_plan", Value: "true"},
	}

	encoded, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.Equal(t, `{"setup_grade":"A","confidence":"7","followed_plan":"true"}`, string(encoded))

	var decoded CustomFields
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, fields, decoded)
}

func TestCustomFieldsCoerceScalarValues(t *testing.T) {
	t.Parallel()

	var fields CustomFields
	require.NoError(t, json.Unmarshal([]byte(`{"confidence":7,"followed_plan":true,"note":null}`), &fields))

	assert.Equal(t, CustomFields{
		{Key: "confidence", Value: "7"},
		{Key: "followed_plan", Value: "true"},
		{Key: "note", Value: ""},
	}, fields)
}

func TestCustomFieldsRejectNestedValues(t *testing.T) {
	t.Parallel()

	var fields CustomFields
	err := json.Unmarshal([]byte(`{"nested":{"a":1}}`), &fields)
	assert.Error(t, err)
}

func TestCustomFieldsNullRoundTrip(t *testing.T) {
	t.Parallel()

	var fields CustomFields
	require.NoError(t, json.Unmarshal([]byte(`null`), &fields))
	assert.Nil(t, fields)

	encoded, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.Equal(t, "null", string(encoded))

	empty := CustomFields{}
	encoded, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(encoded))
}
