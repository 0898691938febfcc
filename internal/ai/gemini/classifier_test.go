package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/uiindex/internal/ai"
)

type stubGenerator struct {
	responses  []string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no response queued")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

var categories = []string{"login", "job_list", "job_detail"}

func unlimited() ClassifierConfig {
	cfg := DefaultClassifierConfig()
	cfg.RatePerSecond = 0
	cfg.Breaker.Enabled = false
	return cfg
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  error
	}{
		{name: "plain json", response: `{"category": "job_detail", "confidence": 0.9}`, want: "job_detail"},
		{name: "fenced json", response: "```json\n{\"category\": \"Login\", \"confidence\": \"0.8\"}\n```", want: "login"},
		{name: "none", response: `{"category": "none", "confidence": 0.9}`, wantErr: ai.ErrNoCategory},
		{name: "unknown category", response: `{"category": "checkout", "confidence": 0.9}`, wantErr: ai.ErrNoCategory},
		{name: "low confidence", response: `{"category": "login", "confidence": 0.2}`, wantErr: ai.ErrNoCategory},
		{name: "missing confidence", response: `{"category": "login"}`, wantErr: ai.ErrNoCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubGenerator{responses: []string{tt.response}}
			c := NewClassifier(stub, categories, unlimited(), nil)

			got, err := c.Classify(context.Background(), "Sign in to continue")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %q, %v", tt.wantErr, got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %q, got %q, %v", tt.want, got, err)
			}
		})
	}
}

func TestClassifyPrompt(t *testing.T) {
	stub := &stubGenerator{responses: []string{`{"category": "login", "confidence": 1}`}}
	c := NewClassifier(stub, categories, unlimited(), nil)

	if _, err := c.Classify(context.Background(), "  Sign in to continue  "); err != nil {
		t.Fatalf("classify: %v", err)
	}
	for _, want := range []string{"- login\n- job_list\n- job_detail", "\"\"\"\nSign in to continue\n\"\"\""} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, stub.lastPrompt)
		}
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unexpanded placeholder in prompt:\n%s", stub.lastPrompt)
	}
}

func TestClassifyErrors(t *testing.T) {
	c := NewClassifier(&stubGenerator{responses: []string{"not json"}}, categories, unlimited(), nil)
	if _, err := c.Classify(context.Background(), "text"); err == nil || errors.Is(err, ai.ErrNoCategory) {
		t.Fatalf("expected parse error, got %v", err)
	}

	stub := &stubGenerator{}
	c = NewClassifier(stub, categories, unlimited(), nil)
	if _, err := c.Classify(context.Background(), "   "); !errors.Is(err, ai.ErrNoCategory) || stub.calls != 0 {
		t.Fatalf("expected blank text to skip the model, got %v after %d calls", err, stub.calls)
	}
}

func TestClassifyCircuitBreaker(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	stub := &stubGenerator{err: errors.New("503")}

	cfg := unlimited()
	cfg.Breaker = BreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Timeout:      time.Hour,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
	c := NewClassifier(stub, categories, cfg, zap.New(core))

	for i := 0; i < 2; i++ {
		if _, err := c.Classify(context.Background(), "text"); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}

	_, err := c.Classify(context.Background(), "text")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected the open breaker to skip the model, got %d calls", stub.calls)
	}

	changes := logs.FilterMessage("circuit breaker state changed").All()
	if len(changes) != 1 || changes[0].ContextMap()["to"] != "open" {
		t.Fatalf("expected a transition to open, got %+v", changes)
	}
	if changes[0].ContextMap()["provider"] != "gemini" || changes[0].ContextMap()["model"] != "stub-model" {
		t.Fatalf("expected provider fields, got %v", changes[0].ContextMap())
	}
}

func TestClassifyRateLimit(t *testing.T) {
	stub := &stubGenerator{responses: []string{
		`{"category": "login", "confidence": 1}`,
		`{"category": "login", "confidence": 1}`,
	}}
	cfg := unlimited()
	cfg.RatePerSecond = 0.001
	cfg.Burst = 1
	c := NewClassifier(stub, categories, cfg, nil)

	if _, err := c.Classify(context.Background(), "text"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Classify(ctx, "text"); err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected the limited call to skip the model, got %d calls", stub.calls)
	}
}
