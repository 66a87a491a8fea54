package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type mockMessager struct {
	responses []*anthropic.Message
	errs      []error
	calls     int
	lastParam anthropic.MessageNewParams
}

func (m *mockMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	i := m.calls
	m.calls++
	m.lastParam = params
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return newMockMessage(""), nil
}

func newMockMessage(text string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: text},
		},
	}
}

func withMockClient(mock *mockMessager) func() {
	old := newAnthropicClient
	newAnthropicClient = func(_ string) AnthropicMessager { return mock }
	return func() { newAnthropicClient = old }
}

func withoutSleep() func() {
	old := sleep
	sleep = func(context.Context, time.Duration) error { return nil }
	return func() { sleep = old }
}

func TestNarratorSummarize(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	mock := &mockMessager{responses: []*anthropic.Message{newMockMessage("  Portnox Cloud offers the lowest TCO.  ")}}
	defer withMockClient(mock)()

	n, err := NewNarratorFromEnv()
	if err != nil {
		t.Fatalf("new narrator: %v", err)
	}
	got, err := n.Summarize(context.Background(), sampleResult(t))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "Portnox Cloud offers the lowest TCO." {
		t.Fatalf("unexpected summary %q", got)
	}
	prompt := mock.lastParam.Messages[0].Content[0].OfText.Text
	if !strings.Contains(prompt, "1. Portnox Cloud (cloud): TCO $237,000") {
		t.Fatalf("prompt missing ranked vendor line:\n%s", prompt)
	}
}

func TestNarratorRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewNarratorFromEnv(); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNarratorRetriesTimeouts(t *testing.T) {
	defer withoutSleep()()
	mock := &mockMessager{
		errs:      []error{context.DeadlineExceeded, nil},
		responses: []*anthropic.Message{nil, newMockMessage("ok")},
	}
	got, err := NewNarrator(mock, "").Summarize(context.Background(), sampleResult(t))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "ok" || mock.calls != 2 {
		t.Fatalf("got=%q calls=%d", got, mock.calls)
	}
}

func TestNarratorStopsRetryingWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := &mockMessager{errs: []error{context.DeadlineExceeded, context.DeadlineExceeded, context.DeadlineExceeded}}
	start := time.Now()
	_, err := NewNarrator(mock, "").Summarize(ctx, sampleResult(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("retried after cancellation: calls=%d", mock.calls)
	}
	if elapsed := time.Since(start); elapsed >= backoffDelay(1) {
		t.Fatalf("waited out backoff after cancellation: %v", elapsed)
	}
}

func TestNarratorGivesUpOnClientErrors(t *testing.T) {
	defer withoutSleep()()
	mock := &mockMessager{errs: []error{errors.New("bad request")}}
	_, err := NewNarrator(mock, "claude-test").Summarize(context.Background(), sampleResult(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Fatalf("non-retryable error retried %d times", mock.calls)
	}
	if string(mock.lastParam.Model) != "claude-test" {
		t.Fatalf("model override ignored: %q", mock.lastParam.Model)
	}
}

func TestNarratorEmptyResponses(t *testing.T) {
	mock := &mockMessager{}
	if _, err := NewNarrator(mock, "").Summarize(context.Background(), sampleResult(t)); err == nil {
		t.Fatal("expected error after empty responses")
	}
	if mock.calls != narratorAttempts {
		t.Fatalf("calls=%d want=%d", mock.calls, narratorAttempts)
	}
}

func TestNarratorWithModel(t *testing.T) {
	mock := &mockMessager{responses: []*anthropic.Message{newMockMessage("ok")}}
	base := NewNarrator(mock, "")
	n := base.WithModel("claude-custom")
	if _, err := n.Summarize(context.Background(), sampleResult(t)); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if string(mock.lastParam.Model) != "claude-custom" {
		t.Fatalf("model=%q", mock.lastParam.Model)
	}
	if base.model != anthropic.ModelClaudeSonnet4_20250514 {
		t.Fatal("WithModel changed the original narrator")
	}
}
