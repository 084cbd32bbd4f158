// Package ollama provides an Ollama implementation of the embedding backend.
//
// To avoid an import cycle this package declares its own errors; the parent
// embedding package wraps them into its own error values.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "nomic-embed-text"

// Provider implements the embedding backend for Ollama.
type Provider struct {
	client *api.Client
	config Config
	logger *slog.Logger
}

// Config holds Ollama-specific configuration.
type Config struct {
	// Host is the Ollama API endpoint (e.g., "http://localhost:11434")
	Host string

	// Model is the embedding model (e.g., "nomic-embed-text")
	Model string

	// KeepAlive controls how long the model stays loaded after a request.
	// Zero leaves the server default.
	KeepAlive time.Duration
}

// Common errors
var (
	ErrProviderUnavailable = errors.New("ollama is not reachable")
	ErrModelNotFound       = errors.New("embedding model is not available")
	ErrInvalidResponse     = errors.New("ollama returned an invalid embedding response")
	ErrContextCanceled     = errors.New("operation was canceled")
)

// New creates a new Ollama provider.
// If cfg.Host is empty, it uses the OLLAMA_HOST environment variable or defaults to http://localhost:11434.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Error("failed to create ollama client from environment", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if cfg.Host != "" {
		parsedURL, err := url.Parse(cfg.Host)
		if err != nil {
			logger.Error("invalid ollama host URL", "host", cfg.Host, "error", err)
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}

		client = api.NewClient(parsedURL, http.DefaultClient)
		logger.Debug("created ollama client with explicit host", "host", cfg.Host)
	} else {
		logger.Debug("created ollama client from environment")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
		logger.Debug("using default embedding model", "model", cfg.Model)
	}

	return &Provider{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Model returns the embedding model in use.
func (p *Provider) Model() string {
	return p.config.Model
}

// Embed returns one vector per input text, in input order.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := &api.EmbedRequest{
		Model: p.config.Model,
		Input: texts,
	}
	if p.config.KeepAlive > 0 {
		req.KeepAlive = &api.Duration{Duration: p.config.KeepAlive}
	}

	p.logger.Debug("sending embed request", "model", req.Model, "inputs", len(texts))

	resp, err := p.client.Embed(ctx, req)
	if err != nil {
		p.logger.Error("embed request failed", "error", err, "model", req.Model)
		return nil, classify(err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", ErrInvalidResponse, len(resp.Embeddings), len(texts))
	}

	p.logger.Debug("embed request completed", "model", resp.Model, "vectors", len(resp.Embeddings))
	return resp.Embeddings, nil
}

// Heartbeat checks if the Ollama service is reachable and healthy.
func (p *Provider) Heartbeat(ctx context.Context) error {
	p.logger.Debug("checking ollama heartbeat")

	if err := p.client.Heartbeat(ctx); err != nil {
		p.logger.Error("ollama heartbeat failed", "error", err)
		return classify(err)
	}

	p.logger.Debug("ollama heartbeat successful")
	return nil
}

// ModelAvailable checks if a specific model is available (i.e., has been pulled).
// Ollama tags default to ":latest", so a bare name matches its latest tag.
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	p.logger.Debug("checking model availability", "model", model)

	listResp, err := p.client.List(ctx)
	if err != nil {
		p.logger.Error("failed to list models", "error", err)
		return false, classify(err)
	}

	for _, m := range listResp.Models {
		if m.Name == model || m.Model == model || m.Name == model+":latest" {
			p.logger.Debug("model is available", "model", model)
			return true, nil
		}
	}

	p.logger.Debug("model not found", "model", model, "available_count", len(listResp.Models))
	return false, nil
}

// classify maps client errors onto this package's error values.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrModelNotFound, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
