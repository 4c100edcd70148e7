package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"barguru/internal/cocktail"
	"barguru/internal/llm"
)

// Models names the Gemini models used for each kind of request.
type Models struct {
	Cocktail string
	Chat     string
	Image    string
}

// Client is a client for the Gemini API.
type Client struct {
	client *genai.Client
	models Models
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string, models Models) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{client: client, models: models}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) structuredModel(name string, schema *cocktail.Schema, temperature float32) *genai.GenerativeModel {
	model := c.client.GenerativeModel(name)
	model.SetTemperature(temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = toGenaiSchema(schema)
	return model
}

// StreamObject streams a JSON document matching schema, passing each text
// chunk to emit as soon as it arrives.
func (c *Client) StreamObject(ctx context.Context, prompt string, schema *cocktail.Schema, temperature float32, emit func(string) error) error {
	model := c.structuredModel(c.models.Cocktail, schema, temperature)

	iter := model.GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stream content: %w", err)
		}
		for _, part := range responseParts(resp) {
			if text, ok := part.(genai.Text); ok && text != "" {
				if err := emit(string(text)); err != nil {
					return err
				}
			}
		}
	}
}

// GenerateObject generates a JSON document matching schema and decodes it into out.
func (c *Client) GenerateObject(ctx context.Context, prompt string, schema *cocktail.Schema, temperature float32, out any) error {
	model := c.structuredModel(c.models.Cocktail, schema, temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, part := range responseParts(resp) {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return llm.ErrEmptyResponse
	}

	// Extract the JSON from the response, which might be wrapped in markdown
	cleanJSON, err := llm.ExtractJSON(sb.String())
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cleanJSON), out); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w. Raw response: %s", err, cleanJSON)
	}
	return nil
}

// GenerateImage renders prompt with the image model.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*llm.Image, error) {
	model := c.client.GenerativeModel(c.models.Image)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	for _, part := range responseParts(resp) {
		if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
			return &llm.Image{Data: blob.Data, MIMEType: blob.MIMEType}, nil
		}
	}
	return nil, llm.ErrImageNotReturned
}

// Chat streams a conversation, executing tool calls until the model answers
// in plain text or the step limit is reached.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest, emit func(llm.Event) error) error {
	if len(req.Messages) == 0 {
		return errors.New("chat requires at least one message")
	}

	model := c.client.GenerativeModel(c.models.Chat)
	model.SetTemperature(req.Temperature)

	var system []string
	if req.System != "" {
		system = append(system, req.System)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			}
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	session := model.StartChat()
	last := len(req.Messages) - 1
	for i, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			if i != last {
				session.History = append(session.History, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
			}
		default:
			if i != last {
				session.History = append(session.History, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
			}
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = genai.NewUserContent(genai.Text(strings.Join(system, "\n\n")))
	}

	parts := []genai.Part{genai.Text(req.Messages[last].Content)}
	for step := 0; step < req.Steps(); step++ {
		calls, err := streamTurn(ctx, session, parts, emit)
		if err != nil {
			return err
		}
		if len(calls) == 0 {
			return nil
		}

		parts = nil
		for i, call := range calls {
			args, err := json.Marshal(call.Args)
			if err != nil {
				return fmt.Errorf("failed to marshal tool arguments: %w", err)
			}
			id := fmt.Sprintf("call_%d_%d", step, i)
			output, err := llm.RunTool(ctx, req, id, call.Name, args, emit)
			if err != nil {
				return err
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: toResponseMap(output)})
		}
	}
	return nil
}

func streamTurn(ctx context.Context, session *genai.ChatSession, parts []genai.Part, emit func(llm.Event) error) ([]genai.FunctionCall, error) {
	var calls []genai.FunctionCall
	iter := session.SendMessageStream(ctx, parts...)
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return calls, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stream chat: %w", err)
		}
		for _, part := range responseParts(resp) {
			switch v := part.(type) {
			case genai.Text:
				if v == "" {
					continue
				}
				if err := emit(llm.Event{Type: llm.EventText, Text: string(v)}); err != nil {
					return nil, err
				}
			case genai.FunctionCall:
				calls = append(calls, v)
			}
		}
	}
}

func responseParts(resp *genai.GenerateContentResponse) []genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

// toResponseMap shapes a tool result as the object Gemini expects.
func toResponseMap(output any) map[string]any {
	if m, ok := output.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(output)
	if err == nil {
		var m map[string]any
		if json.Unmarshal(data, &m) == nil && m != nil {
			return m
		}
	}
	return map[string]any{"result": output}
}

func toGenaiSchema(s *cocktail.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Nullable:    s.Nullable,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGenaiSchema(p)
		}
	}
	return out
}

func genaiType(t cocktail.SchemaType) genai.Type {
	switch t {
	case cocktail.SchemaString:
		return genai.TypeString
	case cocktail.SchemaNumber:
		return genai.TypeNumber
	case cocktail.SchemaInteger:
		return genai.TypeInteger
	case cocktail.SchemaBoolean:
		return genai.TypeBoolean
	case cocktail.SchemaArray:
		return genai.TypeArray
	case cocktail.SchemaObject:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
