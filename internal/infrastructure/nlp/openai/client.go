package openai

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/platform/logging"
	"github.com/footchat/footchat/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo-1106"
	defaultTimeout = 15 * time.Second

	// USD per 1000 tokens, used only for the optional cost log line.
	modelPricePer1K = 0.0015
)

var errOpenAITransient = crerr.New("openai transient failure")

// jsonObjectRegex recovers the JSON object from a reply that ignored the
// no-code-fences instruction.
var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	Key               string
	Model             string
	Timeout           time.Duration
	MaxQuestionLength int
	LogCost           bool
	Logger            *logging.Logger
}

// Client extracts draft intents from free text with a few-shot JSON-mode
// chat completion. It implements usecase.IntentExtractor.
type Client struct {
	httpClient        *http.Client
	baseURL           string
	key               string
	model             string
	maxQuestionLength int
	logCost           bool
	logger            *logging.Logger
}

var _ usecase.IntentExtractor = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxLength := cfg.MaxQuestionLength
	if maxLength <= 0 {
		maxLength = DefaultMaxQuestionLength
	}

	return &Client{
		httpClient:        httpClient,
		baseURL:           baseURL,
		key:               strings.TrimSpace(cfg.Key),
		model:             model,
		maxQuestionLength: maxLength,
		logCost:           cfg.LogCost,
		logger:            logger,
	}
}

// Extract maps one user question onto a draft intent. Unsafe prompts are
// short-circuited to Unsupported without a model call.
func (c *Client) Extract(ctx context.Context, userText string) (intent.Draft, error) {
	if !IsSafePrompt(userText, c.maxQuestionLength) {
		c.logger.InfoContext(ctx, "prompt rejected by sanitizer", "length", len(userText))
		return intent.Draft{Name: intent.Unsupported}, nil
	}

	reply, usage, err := c.complete(ctx, userText)
	if err != nil {
		if stderrors.Is(err, errOpenAITransient) {
			return intent.Draft{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return intent.Draft{}, err
	}

	if c.logCost && usage.TotalTokens > 0 {
		cost := float64(usage.TotalTokens) / 1000 * modelPricePer1K
		c.logger.InfoContext(ctx, "openai completion cost",
			"tokens", usage.TotalTokens,
			"cost_usd", strconv.FormatFloat(cost, 'f', 5, 64),
		)
	}

	return draftFromReply(reply)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
	Messages       []chatMessage  `json:"messages"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	TotalTokens int `json:"total_tokens"`
}

func (c *Client) complete(ctx context.Context, userText string) (string, chatUsage, error) {
	payload := chatRequest{
		Model:          c.model,
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages:       buildMessages(userText),
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		return "", chatUsage{}, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(buf.String()))
	if err != nil {
		return "", chatUsage{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", chatUsage{}, fmt.Errorf("%w: send request: %s", errOpenAITransient, sanitizeSensitiveText(err.Error(), c.key))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", chatUsage{}, fmt.Errorf("%w: read response body: %v", errOpenAITransient, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return "", chatUsage{}, fmt.Errorf("%w: model status=%d", errOpenAITransient, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", chatUsage{}, fmt.Errorf("model status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}

	var parsed chatResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return "", chatUsage{}, fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", chatUsage{}, fmt.Errorf("completion response has no choices")
	}

	return parsed.Choices[0].Message.Content, parsed.Usage, nil
}

// extractedIntent is the model's reply schema. Every field except intent is
// nullable free text; the resolution pipeline owns all interpretation.
type extractedIntent struct {
	Intent     string  `json:"intent"`
	LeagueName *string `json:"league_name"`
	TeamA      *string `json:"team_a"`
	TeamB      *string `json:"team_b"`
	PlayerName *string `json:"player_name"`
	Season     *string `json:"season"`
	Date       *string `json:"date"`
	Limit      *int    `json:"limit"`
}

func draftFromReply(reply string) (intent.Draft, error) {
	match := jsonObjectRegex.FindString(reply)
	if match == "" {
		return intent.Draft{}, fmt.Errorf("completion reply contains no JSON object")
	}

	var extracted extractedIntent
	if err := sonic.Unmarshal([]byte(match), &extracted); err != nil {
		return intent.Draft{}, fmt.Errorf("decode completion reply: %w", err)
	}

	name := intent.Name(strings.TrimSpace(strings.ToLower(extracted.Intent)))
	if name == intent.Unsupported {
		return intent.Draft{Name: intent.Unsupported}, nil
	}
	specs, err := intent.SlotsFor(name)
	if err != nil {
		// The model invented an intent outside the schema; treat it like any
		// other unanswerable question.
		return intent.Draft{Name: intent.Unsupported}, nil
	}

	raw := map[intent.SlotName]intent.RawValue{}
	setText := func(slot intent.SlotName, value *string, dateText bool) {
		if value == nil {
			return
		}
		text := strings.TrimSpace(*value)
		if text == "" {
			return
		}
		if dateText {
			raw[slot] = intent.RawDateText(text)
			return
		}
		raw[slot] = intent.RawText(text)
	}
	setText(intent.SlotLeague, extracted.LeagueName, false)
	setText(intent.SlotTeamA, extracted.TeamA, false)
	setText(intent.SlotTeamB, extracted.TeamB, false)
	setText(intent.SlotPlayer, extracted.PlayerName, false)
	setText(intent.SlotSeason, extracted.Season, false)
	setText(intent.SlotDate, extracted.Date, true)
	if extracted.Limit != nil && *extracted.Limit > 0 {
		raw[intent.SlotLimit] = intent.RawInteger(*extracted.Limit)
	}

	// Keep only slots the intent declares; the model occasionally fills
	// fields that make no sense for the question type.
	declared := make(map[intent.SlotName]struct{}, len(specs))
	for _, spec := range specs {
		declared[spec.Name] = struct{}{}
	}
	slots := make(map[intent.SlotName]intent.RawValue, len(raw))
	for slot, value := range raw {
		if _, ok := declared[slot]; ok {
			slots[slot] = value
		}
	}

	return intent.Draft{Name: name, Slots: slots}, nil
}

func buildMessages(userText string) []chatMessage {
	names := intent.Names()
	intentNames := make([]string, 0, len(names)+1)
	for _, name := range names {
		intentNames = append(intentNames, string(name))
	}
	intentNames = append(intentNames, string(intent.Unsupported))

	system := "You are a football-statistics assistant.\n" +
		"Return ONLY valid JSON conforming to the following schema:\n" +
		"{\n" +
		" \"intent\": \"<one of: " + strings.Join(intentNames, ", ") + ">\",\n" +
		" \"league_name\": \"<text|null>\",\n" +
		" \"team_a\": \"<text|null>\",\n" +
		" \"team_b\": \"<text|null>\",\n" +
		" \"player_name\": \"<text|null>\",\n" +
		" \"season\": \"<text|null>\",\n" +
		" \"date\": \"<YYYY-MM-DD|null>\",\n" +
		" \"limit\": \"<integer|null>\"\n" +
		"}\n" +
		"Do not wrap the JSON in triple backticks or explanations."

	messages := make([]chatMessage, 0, len(fewShot)+2)
	messages = append(messages, chatMessage{Role: "system", Content: system})
	messages = append(messages, fewShot...)
	messages = append(messages, chatMessage{Role: "user", Content: userText})
	return messages
}

var fewShot = []chatMessage{
	{Role: "user", Content: "Show me the Premier League standings for 2024/25."},
	{Role: "assistant", Content: `{"intent":"standings","league_name":"Premier League","team_a":null,"team_b":null,"player_name":null,"season":"2024/25","date":null,"limit":null}`},
	{Role: "user", Content: "What was the score for Chelsea vs Manchester United on 2025-05-16?"},
	{Role: "assistant", Content: `{"intent":"fixture","league_name":null,"team_a":"Chelsea","team_b":"Manchester United","player_name":null,"season":null,"date":"2025-05-16","limit":null}`},
	{Role: "user", Content: "How many goals did Lionel Messi score in Ligue 1 in 2020?"},
	{Role: "assistant", Content: `{"intent":"player_stats","league_name":"Ligue 1","team_a":null,"team_b":null,"player_name":"Lionel Messi","season":"2020","date":null,"limit":null}`},
	{Role: "user", Content: "Give me the yellow cards in Real Madrid vs Barcelona on 2024-10-28 in La Liga."},
	{Role: "assistant", Content: `{"intent":"match_events","league_name":"La Liga","team_a":"Real Madrid","team_b":"Barcelona","player_name":null,"season":null,"date":"2024-10-28","limit":null}`},
	{Role: "user", Content: "Show me the last 5 meetings between Benfica and Porto."},
	{Role: "assistant", Content: `{"intent":"head_to_head","league_name":null,"team_a":"Benfica","team_b":"Porto","player_name":null,"season":null,"date":null,"limit":5}`},
	{Role: "user", Content: "When do Arsenal play next?"},
	{Role: "assistant", Content: `{"intent":"next_match","league_name":null,"team_a":"Arsenal","team_b":null,"player_name":null,"season":null,"date":null,"limit":null}`},
	{Role: "user", Content: "Show me NBA standings."},
	{Role: "assistant", Content: `{"intent":"unsupported","league_name":null,"team_a":null,"team_b":null,"player_name":null,"season":null,"date":null,"limit":null}`},
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" || key == "" {
		return value
	}
	return strings.ReplaceAll(value, key, "REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
