package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/rotisserie/eris"

	"github.com/sells-group/survey-cli/internal/resilience"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "mistral"
)

// Ollama completes prompts with a local Ollama server's generate endpoint.
type Ollama struct {
	client      *api.Client
	model       string
	temperature float64
}

// OllamaOption configures an Ollama oracle.
type OllamaOption func(*ollamaSettings)

type ollamaSettings struct {
	model       string
	temperature float64
	http        *http.Client
}

// WithOllamaModel overrides the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(s *ollamaSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) OllamaOption {
	return func(s *ollamaSettings) {
		s.temperature = t
	}
}

// WithOllamaHTTPClient overrides the default http.Client.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(s *ollamaSettings) {
		s.http = hc
	}
}

// NewOllama creates an Ollama oracle for the server at host.
func NewOllama(host string, opts ...OllamaOption) (*Ollama, error) {
	if host == "" {
		host = defaultOllamaHost
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, eris.Wrapf(err, "ollama: parse host %q", host)
	}

	s := ollamaSettings{
		model: defaultOllamaModel,
		http:  &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(&s)
	}

	return &Ollama{
		client:      api.NewClient(base, s.http),
		model:       s.model,
		temperature: s.temperature,
	}, nil
}

// Complete sends a non-streaming generate request and returns the trimmed
// response text.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]any{"temperature": o.temperature},
	}

	var out strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) && resilience.IsTransientHTTPStatus(statusErr.StatusCode) {
			return "", resilience.NewTransientError(eris.Wrap(err, "ollama: generate"), statusErr.StatusCode)
		}
		return "", eris.Wrap(err, "ollama: generate")
	}

	return strings.TrimSpace(out.String()), nil
}
