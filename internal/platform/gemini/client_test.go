package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barguru/internal/cocktail"
)

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(cocktail.CocktailSchema())
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Len(t, s.Required, 8)
	require.Contains(t, s.Properties, "ingredients")
	assert.Equal(t, genai.TypeArray, s.Properties["ingredients"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["ingredients"].Items.Type)

	in := toGenaiSchema(cocktail.InputSchema("brief", true))
	assert.True(t, in.Nullable)
	assert.Equal(t, []string{"classic", "standard", "craft"}, in.Properties["type"].Enum)

	assert.Nil(t, toGenaiSchema(nil))
}

func TestGenaiType(t *testing.T) {
	assert.Equal(t, genai.TypeNumber, genaiType(cocktail.SchemaNumber))
	assert.Equal(t, genai.TypeInteger, genaiType(cocktail.SchemaInteger))
	assert.Equal(t, genai.TypeBoolean, genaiType(cocktail.SchemaBoolean))
	assert.Equal(t, genai.TypeUnspecified, genaiType("date"))
}

func TestToResponseMap(t *testing.T) {
	assert.Equal(t, map[string]any{"status": "saved"}, toResponseMap(map[string]any{"status": "saved"}))

	type result struct {
		Status string `json:"status"`
	}
	assert.Equal(t, map[string]any{"status": "error"}, toResponseMap(result{Status: "error"}))
	assert.Equal(t, map[string]any{"result": "plain"}, toResponseMap("plain"))
}

func TestResponseParts(t *testing.T) {
	assert.Nil(t, responseParts(nil))
	assert.Nil(t, responseParts(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("hi")}}},
	}}
	assert.Equal(t, []genai.Part{genai.Text("hi")}, responseParts(resp))
}
