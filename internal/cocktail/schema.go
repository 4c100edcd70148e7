package cocktail

// SchemaType names a JSON value type in a Schema.
type SchemaType string

const (
	SchemaString  SchemaType = "string"
	SchemaNumber  SchemaType = "number"
	SchemaInteger SchemaType = "integer"
	SchemaBoolean SchemaType = "boolean"
	SchemaArray   SchemaType = "array"
	SchemaObject  SchemaType = "object"
)

// Schema is a provider-neutral description of a JSON value. Model clients
// translate it into their own structured-output and tool parameter types.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	Enum        []string
	Nullable    bool
}

// CocktailSchema describes a complete cocktail spec.
func CocktailSchema() *Schema {
	s := partialCocktailSchema()
	s.Required = []string{"name", "description", "ingredients", "instructions", "tags", "garnish", "glass", "notes"}
	return s
}

// PartialCocktailSchema describes a cocktail spec where every field is optional.
func PartialCocktailSchema(description string) *Schema {
	s := partialCocktailSchema()
	s.Description = description
	return s
}

func partialCocktailSchema() *Schema {
	return &Schema{
		Type: SchemaObject,
		Properties: map[string]*Schema{
			"name":         {Type: SchemaString, Description: "The name of the cocktail.  Should be creative and unique."},
			"description":  {Type: SchemaString, Description: "The description of the cocktail.  Should be a short description of the cocktail."},
			"ingredients":  stringArray("The ingredients of the cocktail."),
			"instructions": stringArray("The instructions to make the cocktail."),
			"tags":         stringArray("The tags of the cocktail."),
			"garnish":      {Type: SchemaString, Description: "The garnish of the cocktail."},
			"glass":        {Type: SchemaString, Description: "The glass to serve the cocktail in."},
			"notes":        {Type: SchemaString, Description: "Notes regarding technique, preparation, etc."},
		},
	}
}

// InputSchema describes the generation brief.
func InputSchema(description string, nullable bool) *Schema {
	return &Schema{
		Type:        SchemaObject,
		Description: description,
		Nullable:    nullable,
		Properties: map[string]*Schema{
			"primaryIngredient": {Type: SchemaString, Description: "The primary ingredient of the cocktail"},
			"theme":             {Type: SchemaString, Description: "The theme of the cocktail"},
			"cuisine":           {Type: SchemaString, Description: "The cuisine to pair with the cocktail"},
			"type": {
				Type:        SchemaString,
				Description: "The type of cocktail",
				Enum:        []string{string(StyleClassic), string(StyleStandard), string(StyleCraft)},
			},
		},
		Required: []string{"primaryIngredient", "theme", "type"},
	}
}

func stringArray(description string) *Schema {
	return &Schema{Type: SchemaArray, Description: description, Items: &Schema{Type: SchemaString}}
}

// JSONSchema renders the schema as a JSON Schema document for backends that
// accept one directly.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Nullable {
		out["type"] = []string{string(s.Type), "null"}
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}
