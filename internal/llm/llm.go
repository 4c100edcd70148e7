// Package llm holds the provider-neutral types shared by the model clients.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"barguru/internal/cocktail"
)

var (
	// ErrEmptyResponse is returned when the model produced no usable content.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrImageNotReturned is returned when an image model answered without an image.
	ErrImageNotReturned = errors.New("model did not return an image")
	// ErrImagesUnsupported is returned by backends that cannot render images.
	ErrImagesUnsupported = errors.New("image generation is not supported by this backend")
)

// Message is one turn of a conversation sent to a model.
type Message struct {
	Role    string
	Content string
}

// ToolFunc executes a tool call. args is the raw JSON object the model produced.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a function the model may call during a chat.
type Tool struct {
	Name        string
	Description string
	Parameters  *cocktail.Schema
	Call        ToolFunc
}

// ChatRequest describes one chat completion, possibly spanning several tool steps.
type ChatRequest struct {
	System      string
	Messages    []Message
	Tools       []Tool
	Temperature float32
	MaxSteps    int
}

// FindTool returns the tool with the given name.
func (r ChatRequest) FindTool(name string) (Tool, bool) {
	for _, t := range r.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Steps returns the configured step limit, defaulting to one.
func (r ChatRequest) Steps() int {
	if r.MaxSteps < 1 {
		return 1
	}
	return r.MaxSteps
}

// EventType names a chat stream event.
type EventType string

const (
	EventText       EventType = "text"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventError      EventType = "error"
	EventFinish     EventType = "finish"
)

// Event is one item of a streamed chat reply.
type Event struct {
	Type       EventType `json:"type"`
	Text       string    `json:"text,omitempty"`
	ToolCallID string    `json:"toolCallId,omitempty"`
	ToolName   string    `json:"toolName,omitempty"`
	Input      any       `json:"input,omitempty"`
	Output     any       `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Image is a generated picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// RunTool executes a tool call and reports both the call and its result
// through emit. A failing tool yields an {"error": ...} result so the model
// can recover.
func RunTool(ctx context.Context, req ChatRequest, id, name string, args json.RawMessage, emit func(Event) error) (any, error) {
	var input any
	if len(args) > 0 {
		_ = json.Unmarshal(args, &input)
	}
	if err := emit(Event{Type: EventToolCall, ToolCallID: id, ToolName: name, Input: input}); err != nil {
		return nil, err
	}

	var output any
	tool, ok := req.FindTool(name)
	if !ok {
		output = map[string]any{"error": "unknown tool " + name}
	} else if out, err := tool.Call(ctx, args); err != nil {
		output = map[string]any{"error": err.Error()}
	} else {
		output = out
	}

	if err := emit(Event{Type: EventToolResult, ToolCallID: id, ToolName: name, Output: output}); err != nil {
		return nil, err
	}
	return output, nil
}

// ExtractJSON returns the outermost JSON object in text. Models sometimes
// wrap structured output in markdown fences or prose.
func ExtractJSON(text string) (string, error) {
	startIndex := strings.Index(text, "{")
	endIndex := strings.LastIndex(text, "}")
	if startIndex == -1 || endIndex == -1 || startIndex > endIndex {
		return "", fmt.Errorf("could not find JSON object in response: %s", text)
	}
	return text[startIndex : endIndex+1], nil
}
