// Package notify delivers job records to a Discord channel through an
// incoming webhook, one embed per record.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	embedColor         = 0x2ecc71
	maxSnippetLength   = 300
	webhookTimeout     = 10 * time.Second
	maxResponsePreview = 256
)

// discordEmbed is the subset of Discord's embed object the notifier uses.
type discordEmbed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordNotifier implements interfaces.Notifier over a webhook URL.
// Sends are paced by a token-bucket limiter so bursts of new records
// stay under Discord's webhook rate limit.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter
	converter  *md.Converter
	logger     arbor.ILogger
}

// NewDiscordNotifier creates a notifier for the configured webhook.
func NewDiscordNotifier(cfg *common.NotifyConfig, logger arbor.ILogger) *DiscordNotifier {
	perSecond := cfg.RateLimit
	if perSecond <= 0 {
		perSecond = 1
	}

	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		converter:  md.NewConverter("", true, nil),
		logger:     logger,
	}
}

// Deliver posts one record as an embed. Blocks on the rate limiter, so
// callers control overall pacing through context cancellation.
func (n *DiscordNotifier) Deliver(ctx context.Context, rec *models.JobRecord) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := webhookPayload{Embeds: []discordEmbed{n.buildEmbed(rec)}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponsePreview))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(preview)))
	}

	n.logger.Debug().
		Str("title", rec.Title).
		Str("platform", string(rec.Platform)).
		Msg("Record delivered to Discord")

	return nil
}

// buildEmbed maps a record to one Discord embed. The snippet is converted
// from source HTML to markdown, which Discord renders natively.
func (n *DiscordNotifier) buildEmbed(rec *models.JobRecord) discordEmbed {
	embed := discordEmbed{
		Title:       rec.Title,
		URL:         rec.SourceURL,
		Description: n.snippetMarkdown(rec.Snippet),
		Color:       embedColor,
	}

	if rec.Company != "" {
		embed.Fields = append(embed.Fields, embedField{Name: "Empresa", Value: rec.Company, Inline: true})
	}
	location := rec.Location
	if rec.Remote {
		location = strings.TrimSpace(location + " (remoto)")
		if location == "(remoto)" {
			location = "Remoto"
		}
	}
	if location != "" {
		embed.Fields = append(embed.Fields, embedField{Name: "Local", Value: location, Inline: true})
	}
	if rec.Contract != models.ContractUnknown {
		embed.Fields = append(embed.Fields, embedField{Name: "Contrato", Value: string(rec.Contract), Inline: true})
	}
	if rec.Salary != "" {
		embed.Fields = append(embed.Fields, embedField{Name: "Salário", Value: rec.Salary, Inline: true})
	}
	embed.Fields = append(embed.Fields, embedField{Name: "Fonte", Value: string(rec.Platform), Inline: true})

	if rec.PostedAt != nil {
		embed.Timestamp = rec.PostedAt.UTC().Format(time.RFC3339)
	}

	return embed
}

// snippetMarkdown converts a snippet to markdown and truncates it for the
// embed description. Conversion failures degrade to the raw text.
func (n *DiscordNotifier) snippetMarkdown(snippet string) string {
	if snippet == "" {
		return ""
	}

	converted, err := n.converter.ConvertString(snippet)
	if err != nil {
		converted = snippet
	}
	converted = strings.TrimSpace(converted)

	if runes := []rune(converted); len(runes) > maxSnippetLength {
		converted = string(runes[:maxSnippetLength]) + "…"
	}
	return converted
}
