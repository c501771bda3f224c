// Package advice asks a text-generation model for financial advice about an
// owner's records. Failures never surface as errors to the caller; they turn
// into a fixed apology instead.
package advice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

const (
	// AdviceUnavailable is returned when advice could not be generated
	AdviceUnavailable = "Sorry, the advisor is unavailable right now. Make sure the API key is active and configured in the environment."
	// ChatUnavailable is returned when a chat reply could not be generated
	ChatUnavailable = "Sorry, I can't respond right now."
)

// Message is one earlier turn of a chat
type Message struct {
	Role string `json:"role" binding:"oneof=user model"` // user or model
	Text string `json:"text" binding:"required"`
}

// Advisor produces prose from a plain-text financial summary
type Advisor interface {
	Advise(ctx context.Context, summary string) string
	Chat(ctx context.Context, summary, message string, history []Message) string
}

// Disabled answers every request with the unavailable text
type Disabled struct{}

func (Disabled) Advise(context.Context, string) string { return AdviceUnavailable }

func (Disabled) Chat(context.Context, string, string, []Message) string { return ChatUnavailable }

// Gemini calls the Generative Language API
type Gemini struct {
	svc   *generativelanguage.Service
	model string
}

var _ Advisor = (*Gemini)(nil)

// NewGemini builds a client for model. Extra options are appended after the
// API key, which lets tests point the client at a local endpoint.
func NewGemini(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	svc, err := generativelanguage.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Gemini{svc: svc, model: model}, nil
}

// New returns a Gemini advisor, or Disabled when no key is configured
func New(ctx context.Context, apiKey, model string) Advisor {
	if apiKey == "" {
		logrus.Warn("GEMINI_API_KEY not set, advice is disabled")
		return Disabled{}
	}
	g, err := NewGemini(ctx, apiKey, model)
	if err != nil {
		logrus.WithError(err).Error("Failed to create advice client, advice is disabled")
		return Disabled{}
	}
	return g
}

func advicePrompt(summary string) string {
	return "As a professional financial advisor, analyze the following data: " + summary + "\n" +
		"Give 3 short, practical suggestions to improve the user's financial health.\n" +
		"Format: answer directly with 3 short paragraphs."
}

func chatInstruction(summary string) string {
	return "You are SmartWallet AI, a smart financial assistant.\n" +
		"The user's financial context: " + summary + "\n" +
		"Answer questions about money, savings or transactions in a relaxed, helpful tone. " +
		"Use emoji to keep it friendly."
}

func textContent(role, text string) *generativelanguage.Content {
	return &generativelanguage.Content{Role: role, Parts: []*generativelanguage.Part{{Text: text}}}
}

func (g *Gemini) Advise(ctx context.Context, summary string) string {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{textContent("user", advicePrompt(summary))},
	}
	text, err := g.generate(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Advice generation failed")
		return AdviceUnavailable
	}
	return text
}

func (g *Gemini) Chat(ctx context.Context, summary, message string, history []Message) string {
	contents := make([]*generativelanguage.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, textContent(m.Role, m.Text))
	}
	contents = append(contents, textContent("user", message))
	req := &generativelanguage.GenerateContentRequest{
		SystemInstruction: textContent("", chatInstruction(summary)),
		Contents:          contents,
	}
	text, err := g.generate(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Chat generation failed")
		return ChatUnavailable
	}
	return text
}

func (g *Gemini) generate(ctx context.Context, req *generativelanguage.GenerateContentRequest) (string, error) {
	resp, err := g.svc.Models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		break // first candidate only
	}
	if b.Len() == 0 {
		return "", errors.New("empty response")
	}
	return b.String(), nil
}
