// Package llm adapts the Gemini API to the classifier and generator
// contracts the pipeline consumes.
package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"glovy/backend/internal/coach"
	"glovy/backend/internal/models"

	"google.golang.org/genai"
)

const (
	// A fast model keeps the classification leg inside the latency budget.
	classifierModel = "gemini-2.5-flash-lite"
	generatorModel  = "gemini-2.5-flash-lite"

	classifierTemperature float32 = 0.1
	generatorTemperature  float32 = 0.8

	classifierMaxTokens int32 = 6400
	generatorMaxTokens  int32 = 5120
)

// Client implements coach.Classifier and coach.Generator over Gemini.
type Client struct {
	client *genai.Client
}

// NewClient creates the Gemini-backed classifier/generator.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{client: client}, nil
}

// Classify asks the model for exactly one trigger label and coerces the raw
// output into the closed taxonomy.
func (c *Client) Classify(ctx context.Context, cc coach.Context) (models.Trigger, error) {
	start := time.Now()

	raw, err := c.generate(ctx, classifierModel, classifierSystemPrompt,
		buildClassifierMessage(cc), classifierTemperature, classifierMaxTokens)
	if err != nil {
		return models.TriggerSilent, err
	}

	trigger := models.ParseTrigger(raw)
	log.Printf("Tone analysis completed in %.2fs: trigger=%s", time.Since(start).Seconds(), trigger)
	return trigger, nil
}

// GenerateMessage produces the coach's broadcast reply for the detected
// trigger.
func (c *Client) GenerateMessage(ctx context.Context, cc coach.Context, trigger models.Trigger) (string, error) {
	start := time.Now()

	text, err := c.generate(ctx, generatorModel, messageSystemPrompt,
		buildGeneratorMessage(cc, trigger), generatorTemperature, generatorMaxTokens)
	if err != nil {
		return "", err
	}

	log.Printf("Coach message generated in %.2fs", time.Since(start).Seconds())
	return strings.TrimSpace(text), nil
}

// GenerateWhisper produces a private reply addressed to the requesting
// participant in second person.
func (c *Client) GenerateWhisper(ctx context.Context, cc coach.Context) (string, error) {
	start := time.Now()

	text, err := c.generate(ctx, generatorModel, whisperSystemPrompt,
		buildWhisperMessage(cc), generatorTemperature, generatorMaxTokens)
	if err != nil {
		return "", err
	}

	log.Printf("Coach whisper generated in %.2fs", time.Since(start).Seconds())
	return strings.TrimSpace(text), nil
}

func (c *Client) generate(ctx context.Context, model, system, message string, temperature float32, maxTokens int32) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model,
		genai.Text(message),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr(temperature),
			MaxOutputTokens:   maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned no text")
	}
	return text, nil
}
