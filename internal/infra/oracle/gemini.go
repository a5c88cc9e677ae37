package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Zainify/onlineportal-sub001/internal/grading"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

const gradingInstructions = `You are a strict but fair teacher grading short written answers.
For every item below decide whether the student's answer is correct or incorrect and give one or two sentences of feedback.
Award one mark per correct answer.

Respond with JSON only, in exactly this shape:
{"obtained_marks": <number>, "total_marks": <number>, "questions": [{"question_id": "<id>", "status": "correct" | "incorrect", "feedback": "<text>"}]}

Items:
`

// Gemini grades free-text answers with a Gemini model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	gm := client.GenerativeModel(model)
	gm.ResponseMIMEType = "application/json"
	gm.SetTemperature(0)
	return &Gemini{client: client, model: gm}, nil
}

func (g *Gemini) Grade(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
	prompt, err := buildPrompt(items)
	if err != nil {
		return grading.OracleResponse{}, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Int("items", len(items)).Msg("Gemini API error during grading")
		return grading.OracleResponse{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return grading.OracleResponse{}, fmt.Errorf("%w: gemini returned no content", grading.ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return grading.DecodeResponse([]byte(text.String()))
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func buildPrompt(items []grading.OracleItem) (string, error) {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode grading items: %w", err)
	}
	return gradingInstructions + string(payload), nil
}
