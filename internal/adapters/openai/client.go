package openai

import (
    "context"
    "encoding/json"
    "errors"
    "strings"

    openai "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/rs/zerolog"

    "github.com/akalsey/github-issue-analysis/internal/config"
)

type Client struct {
    key   string
    model string
    cli   openai.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    model := cfg.OpenAIModel
    if strings.TrimSpace(model) == "" { model = "gpt-4o-mini" }
    cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey), option.WithRequestTimeout(cfg.OpenAITimeout))
    return &Client{ key: cfg.OpenAIKey, model: model, cli: cli, log: log }
}

// SummarizeIssue produces a one-line business summary for an issue payload.
// Callers must redact the payload before handing it over.
func (c *Client) SummarizeIssue(ctx context.Context, payload any) (string, error) {
    if strings.TrimSpace(c.key) == "" { return "", errors.New("openai: missing key") }
    userContent := ""
    if b, err := json.Marshal(payload); err == nil { userContent = string(b) }
    params := openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.model),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage("You are a delivery analyst. Summarize this GitHub issue's delivery story in one sentence: what it was, how long it took from start of work to closure, and anything unusual in its timeline."),
            openai.UserMessage(userContent),
        },
    }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: no choices") }
    return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SummarizeRun turns weekly KPI values into a short executive narrative.
func (c *Client) SummarizeRun(ctx context.Context, kpis map[string]float64, highlights []string) (string, error) {
    if strings.TrimSpace(c.key) == "" { return "", errors.New("openai: missing key") }
    payload := map[string]any{"kpis": kpis, "highlights": highlights}
    userContent := ""
    if b, err := json.Marshal(payload); err == nil { userContent = string(b) }
    params := openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.model),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage("You are an engineering operations coach. Given weekly cycle-time and lead-time KPIs plus per-issue highlights, write a concise summary for executives: trends, outliers, and one or two suggested actions. Plain prose, no markdown."),
            openai.UserMessage(userContent),
        },
    }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: no choices") }
    return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
