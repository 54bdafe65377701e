package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vaultlens/vaultlens/internal/models"
)

// excerptLimit bounds how much of each note body is sent to the model.
const excerptLimit = 1500

// Classifier judges whether two notes are related enough to link.
type Classifier interface {
	Judge(ctx context.Context, a, b *models.Note) (*Judgment, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates a classifier client. baseURL is the API root
// without the /chat/completions suffix.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

const systemPrompt = `You analyze pairs of Markdown notes from a personal knowledge vault and decide whether they should be linked. Respond with a single JSON object:
{"should_link": bool, "relationship_type": string, "explanation": string, "confidence": number between 0 and 1, "suggested_context": string}`

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Judge asks the model for a verdict on the pair (a, b).
func (c *Client) Judge(ctx context.Context, a, b *models.Note) (*Judgment, error) {
	prompt := fmt.Sprintf("Note A: %q\n---\n%s\n---\n\nNote B: %q\n---\n%s\n---\n\nShould note A link to note B?",
		a.Name, excerpt(a.Content), b.Name, excerpt(b.Content))

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("semantic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("semantic: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic: classifier returned %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("semantic: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("semantic: empty response")
	}
	return ParseJudgment(out.Choices[0].Message.Content)
}

func excerpt(content string) string {
	if len(content) <= excerptLimit {
		return content
	}
	return content[:excerptLimit]
}
