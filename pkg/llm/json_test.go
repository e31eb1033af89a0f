package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	jsonStr, err := ExtractJSON(`{"email": "bob@example.com", "confidence": 0.8}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email": "bob@example.com", "confidence": 0.8}`, jsonStr)
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	response := "Here is the result:\n```json\n{\"email\": \"bob@example.com\"}\n```\nDone."
	jsonStr, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email": "bob@example.com"}`, jsonStr)
}

func TestExtractJSON_ThinkTags(t *testing.T) {
	response := "<think>Bob could be Robert Williams.</think>\n{\"email\": \"robert.williams@example.com\"}"
	jsonStr, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email": "robert.williams@example.com"}`, jsonStr)
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	response := `{"outer": {"inner": "value with } brace in string"}}`
	jsonStr, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, jsonStr)
}

func TestExtractJSON_Array(t *testing.T) {
	jsonStr, err := ExtractJSON(`some preamble [{"a": 1}, {"a": 2}] trailing`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a": 1}, {"a": 2}]`, jsonStr)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not determine a match for that name.")
	assert.Error(t, err)
}

func TestParseJSONResponse(t *testing.T) {
	type inference struct {
		Email      string  `json:"email"`
		Confidence float64 `json:"confidence"`
	}

	result, err := ParseJSONResponse[inference]("```json\n{\"email\": \"x@y.z\", \"confidence\": 0.7}\n```")
	require.NoError(t, err)
	assert.Equal(t, "x@y.z", result.Email)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestParseJSONResponse_TypeMismatch(t *testing.T) {
	type inference struct {
		Confidence float64 `json:"confidence"`
	}

	_, err := ParseJSONResponse[inference](`{"confidence": "very high"}`)
	assert.Error(t, err)
}
