package appraise

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/pkg/anthropic"
)

const (
	defaultModel     = "claude-opus-4-20250514"
	defaultMaxTokens = 1024
	snippetLen       = 200
)

// Client sends composed payloads to the vision model and parses the
// structured response. It performs no retries: appraisal calls are not cheap
// to repeat blindly, and the user is always present to resubmit.
type Client struct {
	llm       anthropic.Client
	modelID   string
	maxTokens int64
}

// ClientOption configures the appraisal client.
type ClientOption func(*Client)

// WithModel overrides the default model ID.
func WithModel(id string) ClientOption {
	return func(c *Client) {
		if id != "" {
			c.modelID = id
		}
	}
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// NewClient creates an appraisal client on top of an Anthropic client.
func NewClient(llm anthropic.Client, opts ...ClientOption) *Client {
	c := &Client{
		llm:       llm,
		modelID:   defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze sends the payload and returns the parsed appraisal. Failures are
// always a *Error with a reason of upstream_error, empty_response, or
// parse_error.
func (c *Client) Analyze(ctx context.Context, p Payload) (*model.Appraisal, error) {
	req := anthropic.MessageRequest{
		Model:     c.modelID,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Blocks: p.UserBlocks},
		},
	}
	if p.System != "" {
		req.System = anthropic.BuildCachedSystemBlocks(p.System)
	}

	resp, err := c.llm.CreateMessage(ctx, req)
	if err != nil {
		return nil, &Error{
			Reason:     ReasonUpstream,
			StatusCode: anthropic.StatusCode(err),
			Err:        err,
		}
	}
	resp.Usage.LogCost(c.modelID, "appraisal")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &Error{Reason: ReasonEmpty, Err: eris.New("no text content in model response")}
	}

	appraisal, err := parseAppraisal(text)
	if err != nil {
		return nil, err
	}
	return appraisal, nil
}

// parseAppraisal strips code-fence artifacts and decodes the model's JSON.
// Offer-range violations are clamped rather than rejected; the producing
// model is not fully trustworthy and a swapped range is still usable.
func parseAppraisal(text string) (*model.Appraisal, error) {
	cleaned := stripFences(text)

	var a model.Appraisal
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return nil, &Error{Reason: ReasonParse, Snippet: truncate(cleaned, snippetLen), Err: err}
	}

	if a.ItemType == "" {
		return nil, &Error{Reason: ReasonParse, Snippet: truncate(cleaned, snippetLen), Err: eris.New("missing item_type")}
	}
	if !a.ItemType.Valid() {
		zap.L().Warn("model returned unknown item_type", zap.String("item_type", string(a.ItemType)))
	}

	if a.OfferLow < 0 {
		a.OfferLow = 0
	}
	if a.OfferHigh < 0 {
		a.OfferHigh = 0
	}
	if a.OfferLow > 0 && a.OfferHigh > 0 && a.OfferLow > a.OfferHigh {
		zap.L().Warn("model returned inverted offer range, swapping",
			zap.Int("offer_low", a.OfferLow),
			zap.Int("offer_high", a.OfferHigh),
		)
		a.OfferLow, a.OfferHigh = a.OfferHigh, a.OfferLow
	}

	return &a, nil
}

// stripFences removes markdown code-fence markers the model sometimes wraps
// its JSON in, with or without a language tag.
func stripFences(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
