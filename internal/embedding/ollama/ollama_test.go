package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockServer fakes the subset of the Ollama API used by Provider.
func mockServer(t *testing.T, embed http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.WriteHeader(http.StatusOK)
		case "/api/tags":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"models": []map[string]string{
					{"name": "nomic-embed-text:latest", "model": "nomic-embed-text:latest"},
					{"name": "all-minilm:l6-v2", "model": "all-minilm:l6-v2"},
				},
			})
		case "/api/embed":
			embed(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// TestNew verifies provider creation with various configurations.
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid config with host",
			config:  Config{Host: "http://localhost:11434", Model: "all-minilm"},
			wantErr: false,
		},
		{
			name:    "empty model uses default",
			config:  Config{Host: "http://localhost:11434"},
			wantErr: false,
		},
		{
			name:    "invalid host URL",
			config:  Config{Host: "://invalid-url"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := New(tt.config, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && provider.Model() == "" {
				t.Error("Model should have default value")
			}
		})
	}
}

// TestNewNilLogger verifies that nil logger is rejected.
func TestNewNilLogger(t *testing.T) {
	_, err := New(Config{Host: "http://localhost:11434"}, nil)
	if err == nil {
		t.Error("New() should reject nil logger")
	}
}

func TestEmbed(t *testing.T) {
	var gotModel string
	var gotInputs []string
	var gotKeepAlive bool

	server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model     string      `json:"model"`
			Input     []string    `json:"input"`
			KeepAlive interface{} `json:"keep_alive"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = req.Model
		gotInputs = req.Input
		gotKeepAlive = req.KeepAlive != nil

		vectors := make([][]float32, len(req.Input))
		for i := range req.Input {
			vectors[i] = []float32{float32(i), 1}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      req.Model,
			"embeddings": vectors,
		})
	})

	provider, err := New(Config{Host: server.URL, KeepAlive: 5 * time.Minute}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	vectors, err := provider.Embed(context.Background(), []string{"conn to <VAR> failed", "heartbeat"})
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}

	if gotModel != DefaultModel {
		t.Errorf("request model = %q, want %q", gotModel, DefaultModel)
	}
	if len(gotInputs) != 2 || gotInputs[1] != "heartbeat" {
		t.Errorf("request inputs = %v", gotInputs)
	}
	if !gotKeepAlive {
		t.Error("expected keep_alive in request")
	}
	if len(vectors) != 2 || vectors[1][0] != 1 {
		t.Errorf("Embed() vectors = %v", vectors)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	provider, err := New(Config{Host: "http://127.0.0.1:1"}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	vectors, err := provider.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Errorf("Embed(nil) = %v, %v; want nil, nil", vectors, err)
	}
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      "nomic-embed-text",
			"embeddings": [][]float32{{1, 0}},
		})
	})

	provider, err := New(Config{Host: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestEmbedServerError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"model missing", http.StatusNotFound, ErrModelNotFound},
		{"server failure", http.StatusInternalServerError, ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			})

			provider, err := New(Config{Host: server.URL}, testLogger())
			if err != nil {
				t.Fatalf("Failed to create provider: %v", err)
			}

			_, err = provider.Embed(context.Background(), []string{"a"})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEmbedCanceled(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	provider, err := New(Config{Host: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = provider.Embed(ctx, []string{"a"})
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

func TestHeartbeat(t *testing.T) {
	server := mockServer(t, nil)

	provider, err := New(Config{Host: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if err := provider.Heartbeat(context.Background()); err != nil {
		t.Errorf("Heartbeat() failed: %v", err)
	}
}

func TestHeartbeatUnreachable(t *testing.T) {
	server := mockServer(t, nil)
	url := server.URL
	server.Close()

	provider, err := New(Config{Host: url}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	err = provider.Heartbeat(context.Background())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestModelAvailable(t *testing.T) {
	server := mockServer(t, nil)

	provider, err := New(Config{Host: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	tests := []struct {
		model string
		want  bool
	}{
		{"nomic-embed-text", true},
		{"nomic-embed-text:latest", true},
		{"all-minilm:l6-v2", true},
		{"all-minilm", false},
		{"mxbai-embed-large", false},
	}

	for _, tt := range tests {
		got, err := provider.ModelAvailable(context.Background(), tt.model)
		if err != nil {
			t.Fatalf("ModelAvailable(%q) error = %v", tt.model, err)
		}
		if got != tt.want {
			t.Errorf("ModelAvailable(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
