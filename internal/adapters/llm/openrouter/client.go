package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clkhoo5211/aphorism/internal/domain"
	"github.com/clkhoo5211/aphorism/internal/ports"
)

const defaultDisclaimer = "For reflection/entertainment; not medical/legal/financial advice."

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Fallbacks are tried in order when Model fails.
	Fallbacks []string
}

// Client implements ports.Interpreter via the OpenRouter chat completions API.
type Client struct {
	httpClient *http.Client
	opts       Options
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, opts Options, logger *slog.Logger) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{httpClient: httpClient, opts: opts, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Interpret asks the primary model, then each fallback, for a reading of the spread.
func (c *Client) Interpret(ctx context.Context, in ports.InterpretInput) (ports.InterpretOutput, error) {
	models := append([]string{c.opts.Model}, c.opts.Fallbacks...)

	var lastErr error
	for i, model := range models {
		out, err := c.interpretWith(ctx, model, in)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < len(models)-1 {
			c.logger.WarnContext(ctx, "model failed, trying next", "model", model, "next", models[i+1], "error", err)
		}
	}
	return ports.InterpretOutput{}, lastErr
}

func (c *Client) interpretWith(ctx context.Context, model string, in ports.InterpretInput) (ports.InterpretOutput, error) {
	system := systemPrompt(in.Lang)

	content, err := c.complete(ctx, model, system, userPrompt(in))
	if err != nil {
		return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	out, err := decodeOutput(content)
	if err != nil {
		// One repair round: show the model what it sent and ask again.
		c.logger.WarnContext(ctx, "LLM returned invalid JSON, retrying", "model", model, "error", err)
		content, err = c.complete(ctx, model, system, repairPrompt(content))
		if err != nil {
			return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
		}
		if out, err = decodeOutput(content); err != nil {
			return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrInvalidLLMJSON, err)
		}
	}

	if out.Style == "" {
		out.Style = "neutral"
	}
	if out.Disclaimer == "" {
		out.Disclaimer = defaultDisclaimer
	}
	out.Model = model
	return out, nil
}

// decodeOutput parses the model's JSON, tolerating a surrounding code fence.
func decodeOutput(content string) (ports.InterpretOutput, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var out ports.InterpretOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return ports.InterpretOutput{}, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return ports.InterpretOutput{}, fmt.Errorf("empty text field")
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, model, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(raw))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return chat.Choices[0].Message.Content, nil
}

// langNames maps common BCP 47 codes to human-readable language names.
var langNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ru": "Russian",
}

const outputSchema = `{
  "text": "<your interpretation, Markdown allowed>",
  "style": "neutral",
  "disclaimer": "` + defaultDisclaimer + `"
}`

func systemPrompt(lang string) string {
	var langRule string
	if lang != "" && lang != "en" {
		name, ok := langNames[lang]
		if !ok {
			name = lang
		}
		langRule = fmt.Sprintf("\n- Respond entirely in %s.", name)
	}

	return `You are a tarot reader giving neutral, reflective readings of a spread.
Each card sits in a named position; read it in light of that position and its orientation.

Rules:
- Stay balanced; offer possibilities and reflective questions, never verdicts.
- Never give medical, legal, or financial advice.
- Never predict specific outcomes or disasters.
- If a question is provided, address it without guaranteeing anything.
- The text may use light Markdown (paragraphs, emphasis, short lists).` + langRule + `

Respond with ONLY a JSON object (no code fences, no extra text) matching this schema:
` + outputSchema
}

func userPrompt(in ports.InterpretInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deck style: %s\nSpread: %s\n\nCards drawn:\n", in.Style, in.Spread)

	for _, card := range in.Cards {
		fmt.Fprintf(&b, "  %d. %s: %s (%s)\n", card.Position, card.Slot, card.Name, card.Orientation)
		fmt.Fprintf(&b, "     Meaning: %s\n", card.Meaning)
	}

	if in.Question != "" {
		fmt.Fprintf(&b, "\nThe querent asks: %q\n", in.Question)
	}

	b.WriteString("\nProvide a cohesive reading as a single JSON object.")
	return b.String()
}

func repairPrompt(bad string) string {
	return "Your previous response was not valid JSON. Here is what you returned:\n" +
		bad + "\n\nReturn ONLY the corrected JSON object matching this schema (no code fences):\n" +
		outputSchema
}
