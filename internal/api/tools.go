package api

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"barguru/internal/cocktail"
	"barguru/internal/llm"
)

// Save tool statuses.
const (
	saveStatusSaved        = "saved"
	saveStatusRequiresAuth = "requires-auth"
	saveStatusError        = "error"
)

type editCocktailArgs struct {
	ChangeRequest   string             `json:"changeRequest"`
	CurrentCocktail *cocktail.Cocktail `json:"currentCocktail"`
}

type editCocktailResult struct {
	Success  bool               `json:"success"`
	Cocktail *cocktail.Cocktail `json:"cocktail,omitempty"`
	Summary  string             `json:"summary,omitempty"`
	Message  string             `json:"message,omitempty"`
}

type saveCocktailArgs struct {
	Cocktail cocktail.Cocktail `json:"cocktail"`
	Inputs   *cocktail.Input   `json:"inputs"`
}

type saveCocktailResult struct {
	Status          string `json:"status"`
	CocktailName    string `json:"cocktailName,omitempty"`
	SavedCocktailID int64  `json:"savedCocktailId,omitempty"`
	Message         string `json:"message"`
}

// chatTools carries the per-request state the chat tools act on.
type chatTools struct {
	h            *Handler
	userID       string
	signedIn     bool
	baseCocktail *cocktail.Cocktail
	baseInputs   *cocktail.Input
}

func (t *chatTools) definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "editCocktail",
			Description: "Revise the cocktail specification to incorporate guest feedback while keeping measurements precise.",
			Parameters: &cocktail.Schema{
				Type: cocktail.SchemaObject,
				Properties: map[string]*cocktail.Schema{
					"changeRequest": {
						Type:        cocktail.SchemaString,
						Description: "Detailed description of the adjustments the guest wants, including flavor or ingredient notes.",
					},
					"currentCocktail": cocktail.PartialCocktailSchema("The latest version of the cocktail specification that should be used as the starting point."),
				},
				Required: []string{"changeRequest"},
			},
			Call: t.editCocktail,
		},
		{
			Name:        "saveCocktail",
			Description: "Save the current cocktail to the guest's profile once they confirm they want to keep it.",
			Parameters: &cocktail.Schema{
				Type: cocktail.SchemaObject,
				Properties: map[string]*cocktail.Schema{
					"cocktail": withDescription(cocktail.CocktailSchema(), "The cocktail specification that should be saved to the guest profile."),
					"inputs":   cocktail.InputSchema("Original generation inputs for reference. Include when available to improve saved metadata.", true),
				},
				Required: []string{"cocktail"},
			},
			Call: t.saveCocktail,
		},
	}
}

func withDescription(s *cocktail.Schema, description string) *cocktail.Schema {
	s.Description = description
	return s
}

func (t *chatTools) editCocktail(ctx context.Context, raw json.RawMessage) (any, error) {
	var args editCocktailArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid editCocktail arguments: %w", err)
	}

	starting := args.CurrentCocktail
	if starting == nil {
		starting = t.baseCocktail
	}
	if starting == nil {
		return editCocktailResult{
			Success: false,
			Message: "I couldn't locate the current cocktail spec to update. Ask the guest to regenerate the drink first.",
		}, nil
	}

	var updated cocktail.Cocktail
	prompt := cocktail.EditPrompt(starting, args.ChangeRequest)
	if err := t.h.Generator.GenerateObject(ctx, prompt, cocktail.CocktailSchema(), editTemperature, &updated); err != nil {
		t.h.Logger.Error("failed to edit cocktail via tool", zap.Error(err))
		return editCocktailResult{
			Success: false,
			Message: "The edit request couldn't be completed. Try refining the change or regenerating the cocktail.",
		}, nil
	}

	return editCocktailResult{Success: true, Cocktail: &updated, Summary: args.ChangeRequest}, nil
}

func (t *chatTools) saveCocktail(ctx context.Context, raw json.RawMessage) (any, error) {
	if !t.signedIn {
		return saveCocktailResult{
			Status:  saveStatusRequiresAuth,
			Message: "Saving cocktails is available for signed-in members. Invite the guest to create an account to unlock it.",
		}, nil
	}

	var args saveCocktailArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid saveCocktail arguments: %w", err)
	}
	if args.Cocktail.Name == "" {
		return saveCocktailResult{Status: saveStatusError, Message: "The cocktail needs a name before it can be saved."}, nil
	}

	inputs := args.Inputs
	if inputs == nil {
		inputs = t.baseInputs
	}

	failed := saveCocktailResult{Status: saveStatusError, Message: "I couldn't save the cocktail right now. Please try again in a moment."}
	if err := t.h.ensureUser(ctx, t.userID); err != nil {
		t.h.Logger.Error("failed to save cocktail via tool", zap.Error(err))
		return failed, nil
	}
	record, err := t.h.Store.SaveCocktailForUser(ctx, t.userID, args.Cocktail, inputs, nil)
	if err != nil {
		t.h.Logger.Error("failed to save cocktail via tool", zap.Error(err))
		return failed, nil
	}

	return saveCocktailResult{
		Status:          saveStatusSaved,
		CocktailName:    record.Name,
		SavedCocktailID: record.ID,
		Message:         fmt.Sprintf("%s was saved to the guest profile.", record.Name),
	}, nil
}
