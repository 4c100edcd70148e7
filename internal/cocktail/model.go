package cocktail

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// ServiceStyle is the kind of drink requested: classic, standard or craft.
type ServiceStyle string

const (
	StyleClassic  ServiceStyle = "classic"
	StyleStandard ServiceStyle = "standard"
	StyleCraft    ServiceStyle = "craft"
)

// Label returns the capitalised style name shown on cards.
func (s ServiceStyle) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Input represents the brief a guest submits to generate a cocktail.
type Input struct {
	PrimaryIngredient string       `json:"primaryIngredient" binding:"required,notblank,notother"`
	Theme             string       `json:"theme" binding:"required,notblank"`
	Cuisine           string       `json:"cuisine,omitempty"`
	Type              ServiceStyle `json:"type" binding:"required,oneof=classic standard craft"`
}

// Normalize trims the brief and resolves catalogue values such as
// "london-dry-gin" to their display label.
func (in *Input) Normalize() {
	in.PrimaryIngredient = strings.TrimSpace(in.PrimaryIngredient)
	if label, ok := IngredientLabel(in.PrimaryIngredient); ok {
		in.PrimaryIngredient = label
	}
	in.Theme = strings.TrimSpace(in.Theme)
	in.Cuisine = strings.TrimSpace(in.Cuisine)
}

// Cocktail represents the structured recipe returned by the model.
type Cocktail struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Tags         []string `json:"tags"`
	Garnish      string   `json:"garnish"`
	Glass        string   `json:"glass"`
	Notes        string   `json:"notes"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Cocktail.
// Models occasionally return a single string where a list is expected, so the
// list fields accept either form. Tags are lower-cased.
func (c *Cocktail) UnmarshalJSON(data []byte) error {
	type Alias Cocktail // Create an alias to avoid infinite recursion
	aux := &struct {
		Ingredients  stringList `json:"ingredients"`
		Instructions stringList `json:"instructions"`
		Tags         stringList `json:"tags"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.Ingredients = aux.Ingredients
	c.Instructions = aux.Instructions
	c.Tags = make([]string, 0, len(aux.Tags))
	for _, tag := range aux.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			c.Tags = append(c.Tags, tag)
		}
	}
	return nil
}

type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = []string{}
		} else {
			*l = []string{s}
		}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// CanGenerateImage reports whether the cocktail carries enough detail for an
// image prompt. Partially streamed cocktails return false.
func (c *Cocktail) CanGenerateImage() bool {
	return c != nil &&
		c.Name != "" &&
		c.Description != "" &&
		len(c.Ingredients) > 0 &&
		c.Garnish != "" &&
		c.Glass != "" &&
		len(c.Tags) > 0
}

// ImageRequest is the body of an image generation request.
type ImageRequest struct {
	Cocktail Cocktail `json:"cocktail"`
	Inputs   *Input   `json:"inputs"`
}

// ImageRequestKey returns a deterministic key identifying an image request.
// Two requests with the same key produce the same picture.
func ImageRequestKey(c Cocktail, inputs *Input) string {
	key := struct {
		Name              string   `json:"name"`
		Description       string   `json:"description"`
		Garnish           string   `json:"garnish"`
		Glass             string   `json:"glass"`
		Tags              []string `json:"tags"`
		PrimaryIngredient string   `json:"primaryIngredient"`
		Theme             string   `json:"theme"`
		Cuisine           string   `json:"cuisine"`
		Type              string   `json:"type"`
	}{
		Name:        c.Name,
		Description: c.Description,
		Garnish:     c.Garnish,
		Glass:       c.Glass,
		Tags:        c.Tags,
	}
	if key.Tags == nil {
		key.Tags = []string{}
	}
	if inputs != nil {
		key.PrimaryIngredient = inputs.PrimaryIngredient
		key.Theme = inputs.Theme
		key.Cuisine = inputs.Cuisine
		key.Type = string(inputs.Type)
	}
	data, _ := json.Marshal(key)
	return string(data)
}

// KeyHash calculates the SHA256 hash of an image request key.
func KeyHash(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// SavedCocktail is a cocktail stored on a member's profile.
type SavedCocktail struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Cocktail  Cocktail  `json:"cocktail"`
	Inputs    *Input    `json:"inputs"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is a member synced from Clerk.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	IsPremium bool      `json:"isPremium" db:"is_premium"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Usage records one cocktail generation.
type Usage struct {
	ID          int64     `json:"id" db:"id"`
	UserID      *string   `json:"userId" db:"user_id"`
	SessionID   string    `json:"sessionId" db:"session_id"`
	GeneratedAt time.Time `json:"generatedAt" db:"generated_at"`
	UsageCount  int       `json:"usageCount" db:"usage_count"`
}

// QuotaStatus is the outcome of an anonymous quota check.
type QuotaStatus struct {
	CanGenerate bool `json:"canGenerate"`
	UsageCount  int  `json:"usageCount"`
}

// ChatMessage is one turn of a conversation. Clients send either a plain
// content string or UI message parts.
type ChatMessage struct {
	Role    string        `json:"role" binding:"required,oneof=user assistant system"`
	Content string        `json:"content"`
	Parts   []MessagePart `json:"parts"`
}

// MessagePart is one part of a UI message. Only text parts carry content for
// the model.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text returns the message content, joining text parts when Content is empty.
func (m ChatMessage) Text() string {
	if m.Content != "" {
		return m.Content
	}
	var texts []string
	for _, p := range m.Parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// BarContext describes the venue and bar program a chat should design for.
type BarContext struct {
	Venue struct {
		Name         string  `json:"name,omitempty"`
		Type         string  `json:"type,omitempty"`
		Positioning  string  `json:"positioning,omitempty"`
		AverageCheck float64 `json:"averageCheck,omitempty"`
		BrandVoice   string  `json:"brandVoice,omitempty"`
	} `json:"venue"`
	BarProgram struct {
		Style             string   `json:"style,omitempty"`
		Constraints       []string `json:"constraints,omitempty"`
		BannedIngredients []string `json:"bannedIngredients,omitempty"`
	} `json:"barProgram"`
	CuisineStyle []string        `json:"cuisineStyle,omitempty"`
	Season       string          `json:"season,omitempty"`
	Theme        string          `json:"theme,omitempty"`
	Inventory    []InventoryItem `json:"inventory,omitempty"`
	CostTargets  *CostTargets    `json:"costTargets,omitempty"`
}

type InventoryItem struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount,omitempty"`
	Unit   string   `json:"unit,omitempty"`
}

type CostTargets struct {
	Currency           string   `json:"currency"`
	MaxCostPerCocktail *float64 `json:"maxCostPerCocktail,omitempty"`
}
