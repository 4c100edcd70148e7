package localllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"barguru/internal/cocktail"
	"barguru/internal/llm"
)

// Client represents a client for an OpenAI-compatible local LLM server.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
}

// NewClient creates a new client for the local LLM.
func NewClient(apiURL, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		model:      model,
	}
}

// Request represents the request body for the local LLM.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Tools          []ToolSpec      `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Message represents a message in the request.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolSpec declares a function the model may call.
type ToolSpec struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec describes a callable function.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ResponseFormat constrains the reply to a JSON schema.
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema wraps a named schema document.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Complete sends a request to the local LLM and returns the first choice.
func (c *Client) Complete(ctx context.Context, reqBody Request) (*Message, error) {
	reqBody.Model = c.model

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-OK status code: %d", resp.StatusCode)
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(llmResp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	return &llmResp.Choices[0].Message, nil
}

func (c *Client) completeObject(ctx context.Context, prompt string, schema *cocktail.Schema, temperature float32) (string, error) {
	msg, err := c.Complete(ctx, Request{
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
		ResponseFormat: &ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &JSONSchema{Name: "cocktail", Strict: true, Schema: schema.JSONSchema()},
		},
	})
	if err != nil {
		return "", err
	}

	// Clean up the response text
	cleaned := strings.TrimPrefix(strings.TrimSpace(msg.Content), "```json")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", llm.ErrEmptyResponse
	}
	return cleaned, nil
}

// StreamObject generates a JSON document matching schema. The local server is
// called without streaming, so the document arrives as a single chunk.
func (c *Client) StreamObject(ctx context.Context, prompt string, schema *cocktail.Schema, temperature float32, emit func(string) error) error {
	text, err := c.completeObject(ctx, prompt, schema, temperature)
	if err != nil {
		return err
	}
	return emit(text)
}

// GenerateObject generates a JSON document matching schema and decodes it into out.
func (c *Client) GenerateObject(ctx context.Context, prompt string, schema *cocktail.Schema, temperature float32, out any) error {
	text, err := c.completeObject(ctx, prompt, schema, temperature)
	if err != nil {
		return err
	}
	cleanJSON, err := llm.ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cleanJSON), out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// GenerateImage is not available on local models.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*llm.Image, error) {
	return nil, llm.ErrImagesUnsupported
}

// Chat runs a conversation with tool calls until the model answers in text or
// the step limit is reached.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest, emit func(llm.Event) error) error {
	messages := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}

	var tools []ToolSpec
	for _, t := range req.Tools {
		tools = append(tools, ToolSpec{
			Type:     "function",
			Function: FunctionSpec{Name: t.Name, Description: t.Description, Parameters: t.Parameters.JSONSchema()},
		})
	}

	for step := 0; step < req.Steps(); step++ {
		msg, err := c.Complete(ctx, Request{Messages: messages, Temperature: req.Temperature, Tools: tools})
		if err != nil {
			return err
		}
		if msg.Content != "" {
			if err := emit(llm.Event{Type: llm.EventText, Text: msg.Content}); err != nil {
				return err
			}
		}
		if len(msg.ToolCalls) == 0 {
			return nil
		}

		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			output, err := llm.RunTool(ctx, req, call.ID, call.Function.Name, json.RawMessage(call.Function.Arguments), emit)
			if err != nil {
				return err
			}
			result, err := json.Marshal(output)
			if err != nil {
				return fmt.Errorf("failed to marshal tool result: %w", err)
			}
			messages = append(messages, Message{Role: "tool", Content: string(result), ToolCallID: call.ID})
		}
	}
	return nil
}
