package cocktail

// OtherIngredient is the catalogue value meaning "describe your own ingredient".
const OtherIngredient = "other"

// IngredientOption is one selectable primary ingredient.
type IngredientOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// IngredientCategory groups options for display.
type IngredientCategory struct {
	Name    string             `json:"name"`
	Options []IngredientOption `json:"options"`
}

var ingredientOptions = []IngredientOption{
	{Value: "vodka", Label: "Vodka", Category: "Base Spirits"},
	{Value: "london-dry-gin", Label: "London Dry Gin", Category: "Base Spirits"},
	{Value: "old-tom-gin", Label: "Old Tom Gin", Category: "Base Spirits"},
	{Value: "blanco-tequila", Label: "Blanco Tequila", Category: "Base Spirits"},
	{Value: "reposado-tequila", Label: "Reposado Tequila", Category: "Base Spirits"},
	{Value: "anejo-tequila", Label: "Anejo Tequila", Category: "Base Spirits"},
	{Value: "mezcal", Label: "Mezcal", Category: "Base Spirits"},
	{Value: "light-rum", Label: "Light Rum", Category: "Base Spirits"},
	{Value: "aged-rum", Label: "Aged Rum", Category: "Base Spirits"},
	{Value: "dark-rum", Label: "Dark Rum", Category: "Base Spirits"},
	{Value: "jamaican-rum", Label: "Jamaican Rum", Category: "Base Spirits"},
	{Value: "rhum-agricole", Label: "Rhum Agricole", Category: "Base Spirits"},
	{Value: "cachaca", Label: "Cachaca", Category: "Base Spirits"},
	{Value: "bourbon", Label: "Bourbon", Category: "Base Spirits"},
	{Value: "rye-whiskey", Label: "Rye Whiskey", Category: "Base Spirits"},
	{Value: "irish-whiskey", Label: "Irish Whiskey", Category: "Base Spirits"},
	{Value: "scotch-whisky", Label: "Scotch Whisky", Category: "Base Spirits"},
	{Value: "japanese-whisky", Label: "Japanese Whisky", Category: "Base Spirits"},
	{Value: "canadian-whisky", Label: "Canadian Whisky", Category: "Base Spirits"},
	{Value: "brandy", Label: "Brandy", Category: "Base Spirits"},
	{Value: "cognac", Label: "Cognac", Category: "Base Spirits"},
	{Value: "armagnac", Label: "Armagnac", Category: "Base Spirits"},
	{Value: "pisco", Label: "Pisco", Category: "Base Spirits"},
	{Value: "aperol", Label: "Aperol", Category: "Liqueurs & Cordials"},
	{Value: "campari", Label: "Campari", Category: "Liqueurs & Cordials"},
	{Value: "amaro-averna", Label: "Amaro Averna", Category: "Liqueurs & Cordials"},
	{Value: "amaro-nonino", Label: "Amaro Nonino", Category: "Liqueurs & Cordials"},
	{Value: "fernet-branca", Label: "Fernet-Branca", Category: "Liqueurs & Cordials"},
	{Value: "cynar", Label: "Cynar", Category: "Liqueurs & Cordials"},
	{Value: "green-chartreuse", Label: "Green Chartreuse", Category: "Liqueurs & Cordials"},
	{Value: "yellow-chartreuse", Label: "Yellow Chartreuse", Category: "Liqueurs & Cordials"},
	{Value: "benedictine", Label: "Benedictine", Category: "Liqueurs & Cordials"},
	{Value: "maraschino-liqueur", Label: "Maraschino Liqueur", Category: "Liqueurs & Cordials"},
	{Value: "velvet-falernum", Label: "Velvet Falernum", Category: "Liqueurs & Cordials"},
	{Value: "elderflower-liqueur", Label: "Elderflower Liqueur", Category: "Liqueurs & Cordials"},
	{Value: "orange-liqueur", Label: "Orange Liqueur / Triple Sec", Category: "Liqueurs & Cordials"},
	{Value: "coffee-liqueur", Label: "Coffee Liqueur", Category: "Liqueurs & Cordials"},
	{Value: "creme-de-cacao", Label: "Creme de Cacao", Category: "Liqueurs & Cordials"},
	{Value: "creme-de-cassis", Label: "Creme de Cassis", Category: "Liqueurs & Cordials"},
	{Value: "absinthe", Label: "Absinthe / Pastis", Category: "Liqueurs & Cordials"},
	{Value: "amaretto", Label: "Amaretto", Category: "Liqueurs & Cordials"},
	{Value: "limoncello", Label: "Limoncello", Category: "Liqueurs & Cordials"},
	{Value: "sweet-vermouth", Label: "Sweet Vermouth", Category: "Fortified & Aperitifs"},
	{Value: "dry-vermouth", Label: "Dry Vermouth", Category: "Fortified & Aperitifs"},
	{Value: "blanc-vermouth", Label: "Blanc Vermouth", Category: "Fortified & Aperitifs"},
	{Value: "lillet-blanc", Label: "Lillet Blanc", Category: "Fortified & Aperitifs"},
	{Value: "cocchi-americano", Label: "Cocchi Americano", Category: "Fortified & Aperitifs"},
	{Value: "fino-sherry", Label: "Fino Sherry", Category: "Fortified & Aperitifs"},
	{Value: "amontillado-sherry", Label: "Amontillado Sherry", Category: "Fortified & Aperitifs"},
	{Value: "oloroso-sherry", Label: "Oloroso Sherry", Category: "Fortified & Aperitifs"},
	{Value: "px-sherry", Label: "Pedro Ximenez Sherry", Category: "Fortified & Aperitifs"},
	{Value: "ruby-port", Label: "Ruby Port", Category: "Fortified & Aperitifs"},
	{Value: "tawny-port", Label: "Tawny Port", Category: "Fortified & Aperitifs"},
	{Value: "madeira", Label: "Madeira", Category: "Fortified & Aperitifs"},
	{Value: "sweet-marsala", Label: "Sweet Marsala", Category: "Fortified & Aperitifs"},
	{Value: "orgeat", Label: "Orgeat Syrup", Category: "Syrups & Shrubs"},
	{Value: "demerara-syrup", Label: "Demerara Syrup", Category: "Syrups & Shrubs"},
	{Value: "honey-syrup", Label: "Honey Syrup", Category: "Syrups & Shrubs"},
	{Value: "ginger-syrup", Label: "Ginger Syrup", Category: "Syrups & Shrubs"},
	{Value: "grenadine", Label: "Grenadine", Category: "Syrups & Shrubs"},
	{Value: "pineapple-shrub", Label: "Pineapple Shrub", Category: "Syrups & Shrubs"},
	{Value: "berry-shrub", Label: "Seasonal Berry Shrub", Category: "Syrups & Shrubs"},
	{Value: "apple-cider-shrub", Label: "Apple Cider Shrub", Category: "Syrups & Shrubs"},
	{Value: "chamomile-syrup", Label: "Chamomile Syrup", Category: "Syrups & Shrubs"},
	{Value: "lavender-syrup", Label: "Lavender Syrup", Category: "Syrups & Shrubs"},
	{Value: "cold-brew", Label: "Cold Brew Concentrate", Category: "Mixers & NA"},
	{Value: "espresso", Label: "Espresso Concentrate", Category: "Mixers & NA"},
	{Value: "matcha", Label: "Matcha Elixir", Category: "Mixers & NA"},
	{Value: "chai-syrup", Label: "Chai Syrup", Category: "Mixers & NA"},
	{Value: "coconut-water", Label: "Coconut Water Reduction", Category: "Mixers & NA"},
	{Value: "kombucha", Label: "House Kombucha", Category: "Mixers & NA"},
	{Value: "tonic-syrup", Label: "Tonic Syrup", Category: "Mixers & NA"},
	{Value: "bitters-blend", Label: "Bitters Blend / Tincture", Category: "Mixers & NA"},
}

var ingredientLabels = func() map[string]string {
	labels := make(map[string]string, len(ingredientOptions))
	for _, opt := range ingredientOptions {
		labels[opt.Value] = opt.Label
	}
	return labels
}()

// IngredientLabel returns the display label for a catalogue value.
func IngredientLabel(value string) (string, bool) {
	label, ok := ingredientLabels[value]
	return label, ok
}

// IngredientCategories returns the catalogue grouped by category, in the
// order categories first appear.
func IngredientCategories() []IngredientCategory {
	var categories []IngredientCategory
	index := make(map[string]int)
	for _, opt := range ingredientOptions {
		i, ok := index[opt.Category]
		if !ok {
			i = len(categories)
			index[opt.Category] = i
			categories = append(categories, IngredientCategory{Name: opt.Category})
		}
		categories[i].Options = append(categories[i].Options, opt)
	}
	return categories
}
