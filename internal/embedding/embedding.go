// Package embedding computes vector embeddings for pattern strings and
// relates patterns by cosine similarity.
//
// Embeddings are an optional annotation on top of pattern grouping. Callers
// are expected to log and ignore any error from this package and carry on
// with the syntactic results.
//
// Example usage:
//
//	embedder, err := embedding.NewEmbedder(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	vectors, err := embedding.EmbedGroups(ctx, embedder, groups)
//	if err != nil {
//	    logger.Warn("embeddings unavailable", "error", err)
//	}
//	neighbors := embedding.Nearest(vectors)
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/bimmerbailey/logreason/internal/config"
	"github.com/bimmerbailey/logreason/internal/embedding/ollama"
	"github.com/bimmerbailey/logreason/internal/grouper"
)

// Embedder turns texts into vectors.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed returns one vector per text, in the same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Heartbeat checks if the backend is reachable.
	Heartbeat(ctx context.Context) error
}

// Errors returned by embedders.
var (
	// ErrBackendUnavailable indicates the embedding backend is not reachable
	ErrBackendUnavailable = errors.New("embedding backend is not reachable")

	// ErrModelNotFound indicates the configured model has not been pulled
	ErrModelNotFound = errors.New("embedding model is not available")

	// ErrInvalidResponse indicates the backend returned unusable vectors
	ErrInvalidResponse = errors.New("embedding backend returned invalid response")

	// ErrContextCanceled indicates the operation was canceled via context
	ErrContextCanceled = errors.New("operation was canceled")
)

// NewEmbedder creates an Embedder based on the configuration.
func NewEmbedder(cfg *config.Config, logger *slog.Logger) (Embedder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	providerType := strings.ToLower(cfg.Embedding.Provider)
	logger.Debug("creating embedder", "type", providerType)

	switch providerType {
	case "ollama", "":
		var keepAlive time.Duration
		if cfg.Embedding.Ollama.KeepAlive != "" {
			d, err := config.ParseDuration(cfg.Embedding.Ollama.KeepAlive)
			if err != nil {
				return nil, fmt.Errorf("invalid embedding.ollama.keep_alive: %w", err)
			}
			keepAlive = d
		}

		provider, err := ollama.New(ollama.Config{
			Host:      cfg.Embedding.Ollama.Host,
			Model:     cfg.Embedding.Ollama.Model,
			KeepAlive: keepAlive,
		}, logger)
		if err != nil {
			return nil, translate(err)
		}
		return &ollamaEmbedder{provider: provider}, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: ollama)", providerType)
	}
}

// ollamaEmbedder adapts ollama.Provider to Embedder, translating its errors.
type ollamaEmbedder struct {
	provider *ollama.Provider
}

func (a *ollamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := a.provider.Embed(ctx, texts)
	if err != nil {
		return nil, translate(err)
	}
	return vectors, nil
}

// Heartbeat also verifies the configured model has been pulled.
func (a *ollamaEmbedder) Heartbeat(ctx context.Context) error {
	if err := a.provider.Heartbeat(ctx); err != nil {
		return translate(err)
	}

	ok, err := a.provider.ModelAvailable(ctx, a.provider.Model())
	if err != nil {
		return translate(err)
	}
	if !ok {
		return fmt.Errorf("%w: %s (pull it with: ollama pull %s)", ErrModelNotFound, a.provider.Model(), a.provider.Model())
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, ollama.ErrModelNotFound):
		return fmt.Errorf("%w: %v", ErrModelNotFound, err)
	case errors.Is(err, ollama.ErrInvalidResponse):
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	case errors.Is(err, ollama.ErrContextCanceled):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	default:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}

// EmbedGroups embeds each group's pattern. The i-th vector belongs to groups[i].
func EmbedGroups(ctx context.Context, e Embedder, groups []*grouper.LogGroup) ([][]float32, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	texts := make([]string, len(groups))
	for i, g := range groups {
		texts[i] = g.Pattern
	}

	vectors, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(groups) {
		return nil, fmt.Errorf("%w: got %d vectors for %d patterns", ErrInvalidResponse, len(vectors), len(groups))
	}
	return vectors, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// the lengths differ or either vector has zero magnitude.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}

// Neighbor points at the most similar other vector. Index is -1 when there
// is none.
type Neighbor struct {
	Index      int
	Similarity float32
}

// Nearest returns, for every vector, its most similar other vector. Ties go
// to the lower index.
func Nearest(vectors [][]float32) []Neighbor {
	result := make([]Neighbor, len(vectors))
	for i := range vectors {
		best := Neighbor{Index: -1}
		for j := range vectors {
			if i == j {
				continue
			}
			sim := CosineSimilarity(vectors[i], vectors[j])
			if best.Index == -1 || sim > best.Similarity {
				best = Neighbor{Index: j, Similarity: sim}
			}
		}
		result[i] = best
	}
	return result
}
