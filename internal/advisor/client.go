// Package advisor implements engine.Advisor on top of an OpenAI-compatible
// chat completions API, plus the caching and instrumentation decorators the
// server stacks around it.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/nadmax/taskpulse/internal/logging"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

var ErrMalformedReply = errors.New("malformed advisor reply")

// maxEstimateMinutes is one working week.
const maxEstimateMinutes = 5 * 8 * 60

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the chat completions endpoint and validates every reply
// against the JSON shape the requesting operation expects.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *logging.Logger
}

var _ engine.Advisor = (*Client)(nil)

func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
		log:        logging.Component("advisor"),
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = engine.DefaultAdvisorTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}

	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Schedule returns the advisor's plan as it was sent. Only the shape is
// checked: schedule must be an array of JSON objects.
func (c *Client) Schedule(ctx context.Context, req engine.ScheduleRequest) ([]engine.ScheduleItem, error) {
	var reply struct {
		Schedule *[]json.RawMessage `json:"schedule"`
	}
	if err := c.complete(ctx, schedulePrompt(req), 0.1, &reply); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if reply.Schedule == nil {
		return nil, fmt.Errorf("schedule: %w: missing schedule", ErrMalformedReply)
	}

	items := make([]engine.ScheduleItem, 0, len(*reply.Schedule))
	for i, raw := range *reply.Schedule {
		var item engine.ScheduleItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("schedule: %w: item %d: %v", ErrMalformedReply, i, err)
		}
		items = append(items, item)
	}

	return items, nil
}

func (c *Client) Suggestions(ctx context.Context, req engine.SuggestionRequest) ([]string, error) {
	var reply struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.complete(ctx, suggestionsPrompt(req), 0.3, &reply); err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	if len(reply.Suggestions) == 0 {
		return nil, fmt.Errorf("suggestions: %w: missing suggestions", ErrMalformedReply)
	}

	return reply.Suggestions, nil
}

func (c *Client) BurnoutInsights(ctx context.Context, req engine.BurnoutRequest) (engine.BurnoutInsights, error) {
	var reply struct {
		Reasons *[]string `json:"reasons"`
		Tips    *[]string `json:"tips"`
	}
	if err := c.complete(ctx, burnoutPrompt(req), 0.3, &reply); err != nil {
		return engine.BurnoutInsights{}, fmt.Errorf("burnout insights: %w", err)
	}
	if reply.Reasons == nil || reply.Tips == nil {
		return engine.BurnoutInsights{}, fmt.Errorf("burnout insights: %w: missing reasons or tips", ErrMalformedReply)
	}

	return engine.BurnoutInsights{Reasons: *reply.Reasons, Tips: *reply.Tips}, nil
}

func (c *Client) Estimate(ctx context.Context, req engine.EstimateRequest) (engine.Estimate, error) {
	var reply struct {
		Minutes   *float64 `json:"minutes"`
		Reasoning string   `json:"reasoning"`
	}
	if err := c.complete(ctx, estimatePrompt(req), 0.1, &reply); err != nil {
		return engine.Estimate{}, fmt.Errorf("estimate: %w", err)
	}
	if reply.Minutes == nil {
		return engine.Estimate{}, fmt.Errorf("estimate: %w: missing minutes", ErrMalformedReply)
	}
	if m := *reply.Minutes; math.IsNaN(m) || m < 0 || m > maxEstimateMinutes {
		return engine.Estimate{}, fmt.Errorf("estimate: %w: minutes %v out of range", ErrMalformedReply, m)
	}

	return engine.Estimate{
		Minutes:   int(math.Round(*reply.Minutes)),
		Reasoning: reply.Reasoning,
	}, nil
}

func (c *Client) Coaching(ctx context.Context, req engine.CoachingRequest) (string, error) {
	var reply struct {
		Advice string `json:"advice"`
	}
	if err := c.complete(ctx, coachingPrompt(req), 0.7, &reply); err != nil {
		return "", fmt.Errorf("coaching: %w", err)
	}
	if strings.TrimSpace(reply.Advice) == "" {
		return "", fmt.Errorf("coaching: %w: missing advice", ErrMalformedReply)
	}

	return reply.Advice, nil
}

// complete sends one user prompt and decodes the JSON object in the first
// choice into out.
func (c *Client) complete(ctx context.Context, prompt string, temperature float64, out any) error {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("advisor API error %d: %s", resp.StatusCode, string(data))
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if len(chat.Choices) == 0 {
		return fmt.Errorf("%w: no choices", ErrMalformedReply)
	}

	content := chat.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		c.log.DebugEvent().Str("content", content).Msg("advisor content is not the expected JSON")
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return nil
}
