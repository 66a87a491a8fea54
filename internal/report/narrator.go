package report

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joelkehle/nac-tco/internal/tco"
)

const narratorSystemPrompt = "You are a network security advisor writing the executive summary of a Network Access Control " +
	"cost comparison for a CIO. Use only the figures you are given. Write three short paragraphs of plain prose, no headings, no tables."

const narratorAttempts = 3

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// sleep waits out a backoff unless ctx ends first. Swapped out in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Narrator writes a short executive summary for a comparison run.
type Narrator struct {
	messages AnthropicMessager
	model    anthropic.Model
}

func NewNarratorFromEnv() (*Narrator, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return NewNarrator(newAnthropicClient(apiKey), ""), nil
}

func NewNarrator(m AnthropicMessager, model string) *Narrator {
	n := &Narrator{messages: m, model: anthropic.ModelClaudeSonnet4_20250514}
	if model != "" {
		n.model = anthropic.Model(model)
	}
	return n
}

// WithModel returns a copy that asks model instead.
func (n *Narrator) WithModel(model string) *Narrator {
	c := *n
	if model != "" {
		c.model = anthropic.Model(model)
	}
	return &c
}

func (n *Narrator) Summarize(ctx context.Context, res *tco.Result) (string, error) {
	if res == nil {
		return "", errors.New("summarize: nil result")
	}
	prompt := summaryPrompt(res)
	var lastErr error
	for attempt := 1; attempt <= narratorAttempts; attempt++ {
		text, err := n.generate(ctx, prompt)
		if err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text, nil
			}
			lastErr = errors.New("empty response")
			continue
		}
		lastErr = err
		if !retryable(err) || attempt == narratorAttempts {
			break
		}
		if err := sleep(ctx, backoffDelay(attempt)); err != nil {
			return "", fmt.Errorf("executive summary: %w: %w", err, lastErr)
		}
	}
	return "", fmt.Errorf("executive summary: %w", lastErr)
}

func (n *Narrator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := n.messages.New(ctx, anthropic.MessageNewParams{
		Model:       n.model,
		MaxTokens:   1024,
		System:      []anthropic.TextBlockParam{{Text: narratorSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.2),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func summaryPrompt(res *tco.Result) string {
	p := res.Profile
	var b strings.Builder
	fmt.Fprintf(&b, "Organization: %d devices, %s industry, %d-year horizon, risk profile %s.\n",
		p.DeviceCount, p.Industry.Name, p.YearsToProject, p.RiskProfile)
	if len(p.ComplianceRequirements) > 0 {
		fmt.Fprintf(&b, "Compliance requirements: %s.\n", strings.Join(p.ComplianceRequirements, ", "))
	}
	fmt.Fprintf(&b, "Baseline for savings: %s.\n\nVendors ranked by total cost:\n", res.BaselineID)
	for i, r := range res.Ranked() {
		if r.Cost.Degraded {
			fmt.Fprintf(&b, "%d. %s: pricing unavailable\n", i+1, r.Vendor.Name)
			continue
		}
		fmt.Fprintf(&b, "%d. %s (%s): TCO %s, ROI %s, payback %s months, composite risk %.1f, deployment %d days\n",
			i+1, r.Vendor.Name, r.Vendor.Architecture, USD(r.Cost.TotalTCO),
			MetricPercent(r.ROI.ROIPercentage), Months(r.ROI.PaybackMonths),
			r.Risk.CompositeRiskScore, res.Comparison.ImplementationDays[r.ID()])
	}
	b.WriteString("\nSummarize the cost, risk and deployment trade-offs and name the strongest option.")
	return b.String()
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}
