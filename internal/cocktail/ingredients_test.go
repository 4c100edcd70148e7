package cocktail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientLabel(t *testing.T) {
	label, ok := IngredientLabel("px-sherry")
	assert.True(t, ok)
	assert.Equal(t, "Pedro Ximenez Sherry", label)

	_, ok = IngredientLabel(OtherIngredient)
	assert.False(t, ok)
}

func TestIngredientCategories(t *testing.T) {
	categories := IngredientCategories()
	require.Len(t, categories, 5)

	names := make([]string, len(categories))
	total := 0
	for i, c := range categories {
		names[i] = c.Name
		total += len(c.Options)
		for _, opt := range c.Options {
			assert.Equal(t, c.Name, opt.Category)
		}
	}
	assert.Equal(t, []string{"Base Spirits", "Liqueurs & Cordials", "Fortified & Aperitifs", "Syrups & Shrubs", "Mixers & NA"}, names)
	assert.Equal(t, len(ingredientOptions), total)
	assert.Equal(t, "vodka", categories[0].Options[0].Value)
}

func TestIngredientOptions_UniqueValues(t *testing.T) {
	seen := make(map[string]bool)
	for _, opt := range ingredientOptions {
		assert.False(t, seen[opt.Value], "duplicate value %s", opt.Value)
		seen[opt.Value] = true
	}
}
