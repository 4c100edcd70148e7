package cocktail

import (
	"fmt"
	"strings"
)

// GenerationPrompt builds the prompt for a new cocktail from a brief.
func GenerationPrompt(in Input) string {
	cuisineLine := "No specific cuisine pairing was requested."
	if in.Cuisine != "" {
		cuisineLine = fmt.Sprintf("Cuisine inspiration: %s.", in.Cuisine)
	}

	brief := fmt.Sprintf("You are BarGuru, an inventive cocktail development assistant. Create a modern %s style cocktail "+
		"(classic = classic cocktail style i.e. negroni, martini, etc.  craft = high touch, innovative cocktails that push the boundaries, "+
		"standard = a standard, easy to execute cocktail designed for simplicity and speed) that showcases %s. %s Theme or vibe to capture: %s.",
		in.Type, in.PrimaryIngredient, cuisineLine, in.Theme)

	return brief + "\n\n" + generationRules
}

const generationRules = "Return a JSON object that strictly matches the provided schema fields. " +
	"Keep ingredient measurements precise and in ounces or drops where appropriate. " +
	"Provide detailed instructions that cover preparation, technique, and service. " +
	"Provide garnish, glassware, and a few atmospheric notes that help a bar team execute the concept. " +
	"Tags should be 3-6 short descriptors (lowercase, no hashtags)."

// ImagePrompt builds the photography prompt for a finished cocktail.
func ImagePrompt(c Cocktail, inputs *Input) string {
	flavors := make([]string, 0, len(c.Tags)+2)
	candidates := append([]string{}, c.Tags...)
	style := "modern"
	if inputs != nil {
		candidates = append(candidates, inputs.Theme, inputs.PrimaryIngredient)
		if inputs.Type != "" {
			style = string(inputs.Type)
		}
	}
	for _, v := range candidates {
		if v = strings.TrimSpace(v); v != "" {
			flavors = append(flavors, v)
		}
	}

	return strings.Join([]string{
		"Create a cinematic, high-end cocktail photograph of the \"" + c.Name + "\".",
		fmt.Sprintf("Photograph the drink in a %s cocktail bar setting with atmospheric lighting and a polished bar top. "+
			"Favor shallow depth of field, dramatic highlights, and crisp glass reflections.", style),
		fmt.Sprintf("Serve the drink in a %s, garnished with %s.", c.Glass, c.Garnish),
		fmt.Sprintf("Express the flavor profile as %s.", strings.Join(flavors, ", ")),
		"Notes to include: " + c.Description,
		fmt.Sprintf("Key elements: %s.", strings.Join(c.Ingredients, ", ")),
		"Avoid text overlays or logos. Compose square framing ready for menu inspiration.",
	}, "\n")
}

// FormatForPrompt renders a possibly partial cocktail as plain text.
func FormatForPrompt(c *Cocktail) string {
	if c == nil {
		c = &Cocktail{}
	}
	ingredients := "None provided"
	if len(c.Ingredients) > 0 {
		ingredients = "- " + strings.Join(c.Ingredients, "\n- ")
	}
	instructions := "Keep steps concise and actionable."
	if len(c.Instructions) > 0 {
		instructions = "- " + strings.Join(c.Instructions, "\n- ")
	}
	name := c.Name
	if name == "" {
		name = "Unknown"
	}

	return fmt.Sprintf("Name: %s\nDescription: %s\nIngredients:\n%s\nInstructions:\n%s\nGarnish: %s\nGlass: %s\nTags: %s\nNotes: %s",
		name, c.Description, ingredients, instructions, c.Garnish, c.Glass, strings.Join(c.Tags, ", "), c.Notes)
}

// EditPrompt asks the model to revise a cocktail according to a guest request.
func EditPrompt(current *Cocktail, changeRequest string) string {
	return strings.Join([]string{
		"You are BarGuru, an advanced cocktail development assistant.",
		"Revise the provided cocktail so it follows the guest request. Maintain professional structure and keep measurements in ounces when relevant.",
		"Return a JSON object that matches the cocktail schema fields.",
		"If instructions are provided as an array, keep each step concise.",
		"",
		"CURRENT SPEC:",
		FormatForPrompt(current),
		"",
		"GUEST REQUEST:",
		changeRequest,
	}, "\n")
}

// ChatSystemPrompt builds the bartender persona for chatting about one cocktail.
func ChatSystemPrompt(cocktailName string, current *Cocktail, signedIn bool) string {
	if cocktailName == "" {
		cocktailName = "featured cocktail"
	}

	var context string
	if current != nil {
		context = "\nCURRENT COCKTAIL CONTEXT:\n" +
			"Name: " + orDefault(current.Name, "Unknown") + "\n" +
			"Description: " + orDefault(current.Description, "No description available") + "\n" +
			"Ingredients: " + orDefault(strings.Join(current.Ingredients, ", "), "No ingredients listed") + "\n" +
			"Instructions: " + orDefault(strings.Join(current.Instructions, " "), "No instructions provided") + "\n" +
			"Glass: " + orDefault(current.Glass, "Not specified") + "\n" +
			"Garnish: " + orDefault(current.Garnish, "Not specified") + "\n" +
			"Tags: " + orDefault(strings.Join(current.Tags, ", "), "No tags") + "\n" +
			"Notes: " + orDefault(current.Notes, "No additional notes") + "\n"
	}

	saveGuidance := "The guest is not signed in, so instead of calling this tool explain how signing in unlocks saving."
	if signedIn {
		saveGuidance = "Only call this tool after confirming the guest wants to save a specific version."
	}

	return fmt.Sprintf(chatSystemTemplate, cocktailName, context, saveGuidance)
}

const chatSystemTemplate = `You are a knowledgeable and friendly cocktail expert bartender specializing in the %s. Your role is to help users understand and work with this specific cocktail.
%s
You can leverage the following tools to help the guest:
- editCocktail: generate a refreshed cocktail specification that incorporates the requested adjustments. Always return a complete spec that matches the house format.
- saveCocktail: store the current cocktail spec to the guest profile when they explicitly ask to save. %s

When you call editCocktail, include the most up-to-date cocktail data in the currentCocktail field and describe the desired changes inside changeRequest. When you call saveCocktail, pass the full cocktail object and any known generation inputs.

When a guest asks for recipe tweaks, prefer using the editCocktail tool so they receive an updated specification. If saving is unavailable, warmly encourage them to sign in before emphasizing the benefits.

Your expertise includes:
- Ingredient substitutions and alternatives
- Preparation techniques and best practices
- Flavor profile analysis
- Pairing suggestions
- Troubleshooting common issues
- History and background information
- Variations and modifications

Guidelines:
- Be concise but thorough in your responses
- Focus on practical, actionable advice
- Consider the user's skill level (don't assume professional knowledge unless indicated)
- When suggesting substitutions, explain the flavor impact
- Provide specific measurements and techniques when relevant
- Maintain a friendly, encouraging tone
- If asked about topics unrelated to cocktails, gently redirect back to cocktail-related questions

Always consider the specific cocktail details provided above when answering questions. If the user asks about general cocktail topics, relate your answers back to their specific cocktail when possible.`

// BarSystemPrompt builds the bar-program assistant persona, enriched with the
// venue context when one is given.
func BarSystemPrompt(ctx *BarContext) string {
	const base = "You are BarGuru, an expert bar program assistant. Generate on-brand cocktails to use dead stock and fit venue style.\n" +
		"Respond with structured, bartender-friendly details and clear, measurable ingredients."
	if ctx == nil {
		return base
	}

	var parts []string
	if ctx.Venue.Type != "" {
		parts = append(parts, "Venue Type: "+ctx.Venue.Type)
	}
	if ctx.BarProgram.Style != "" {
		parts = append(parts, "Program Style: "+ctx.BarProgram.Style)
	}
	if len(ctx.CuisineStyle) > 0 {
		parts = append(parts, "Cuisine: "+strings.Join(ctx.CuisineStyle, ", "))
	}
	if ctx.Theme != "" {
		parts = append(parts, "Theme: "+ctx.Theme)
	}
	if ctx.CostTargets != nil && ctx.CostTargets.MaxCostPerCocktail != nil {
		parts = append(parts, fmt.Sprintf("Max Cost: %g", *ctx.CostTargets.MaxCostPerCocktail))
	}
	if len(ctx.Inventory) > 0 {
		names := make([]string, len(ctx.Inventory))
		for i, item := range ctx.Inventory {
			names[i] = item.Name
		}
		parts = append(parts, "Inventory: "+strings.Join(names, ", "))
	}
	if len(ctx.BarProgram.BannedIngredients) > 0 {
		parts = append(parts, "Never use: "+strings.Join(ctx.BarProgram.BannedIngredients, ", "))
	}
	if len(parts) == 0 {
		return base
	}
	return base + "\n" + strings.Join(parts, "\n")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
