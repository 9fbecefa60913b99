package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanModelJSONPassesThroughRawJSON(t *testing.T) {
	raw := `{"categoryId": "cat-1", "confidence": 90}`
	assert.Equal(t, raw, cleanModelJSON(raw))
}

func TestCleanModelJSONStripsJSONFence(t *testing.T) {
	raw := "```json\n{\"categoryId\": \"cat-1\", \"confidence\": 90}\n```"
	assert.Equal(t, `{"categoryId": "cat-1", "confidence": 90}`, cleanModelJSON(raw))
}

func TestCleanModelJSONStripsBareFence(t *testing.T) {
	raw := "```\n{\"action\": \"confirm\"}\n```"
	assert.Equal(t, `{"action": "confirm"}`, cleanModelJSON(raw))
}

func TestCleanModelJSONStripsChatterAroundObject(t *testing.T) {
	raw := "Sure, here is the categorization:\n{\"categoryId\": \"cat-1\"}\nLet me know if you need anything else."
	assert.Equal(t, `{"categoryId": "cat-1"}`, cleanModelJSON(raw))
}

func TestCleanModelJSONTrimsWhitespace(t *testing.T) {
	raw := "\n\n  {\"confidence\": 55}  \n"
	assert.Equal(t, `{"confidence": 55}`, cleanModelJSON(raw))
}

func TestCleanModelJSONKeepsNestedBraces(t *testing.T) {
	raw := "```json\n{\"splits\": [{\"categoryId\": \"cat-1\", \"amount\": 10.5}]}\n```"
	assert.Equal(t, `{"splits": [{"categoryId": "cat-1", "amount": 10.5}]}`, cleanModelJSON(raw))
}
