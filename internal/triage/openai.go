package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You triage internal IT and operations requests. Reply with a single JSON object and nothing else.`

// OpenAIClassifier asks an OpenAI-compatible chat completion endpoint to triage a draft.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier builds a classifier. baseURL may be empty for the public API.
func NewOpenAIClassifier(apiKey, baseURL, model string) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClassifier{client: openai.NewClientWithConfig(cfg), model: model}
}

// Classify sends one chat completion request and parses the reply.
func (c *OpenAIClassifier) Classify(ctx context.Context, draft Draft) (RawOutput, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(draft)},
		},
		Temperature: 0.2,
		MaxTokens:   600,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return ParseOutput(resp.Choices[0].Message.Content)
}

// BuildPrompt renders the instruction set and the draft fields.
func BuildPrompt(draft Draft) string {
	var b strings.Builder
	b.WriteString(`Classify the ticket below.

Teams (suggested, pick the closest or name a better one):
- IT Support
- Network / Infrastructure
- Security
- Software / Applications
- Access / Accounts
- Facilities
- HR
- Finance
- Other / General

Priority (must be exactly one of HIGH, MEDIUM, LOW):
- HIGH: the requester is blocked, asked for ASAP, or the impact is major
- MEDIUM: normal operational issues
- LOW: informational requests and questions

Return JSON with this shape:
{"assignedTeam": string, "priority": "HIGH"|"MEDIUM"|"LOW",
 "summary": {"problem": string, "impact": string, "requestedAction": string},
 "knowledgeSuggestions": [{"title": string, "reason": string}]}
Give at most 2 knowledge suggestions.

Ticket:
`)
	fmt.Fprintf(&b, "Title: %s\n", draft.Title)
	fmt.Fprintf(&b, "Description: %s\n", draft.Description)
	fmt.Fprintf(&b, "Affected system: %s\n", orNone(draft.AffectedSystem))
	fmt.Fprintf(&b, "Blocking: %t\n", draft.IsBlocking)
	timeline := "none"
	if draft.RequestedTimeline != nil {
		timeline = string(*draft.RequestedTimeline)
	}
	fmt.Fprintf(&b, "Requested timeline: %s\n", timeline)
	fmt.Fprintf(&b, "Try knowledge base first: %t\n", draft.TryKBFirst)
	fmt.Fprintf(&b, "Requester department: %s\n", orNone(draft.Department))
	return b.String()
}

func orNone(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "none"
	}
	return *v
}
