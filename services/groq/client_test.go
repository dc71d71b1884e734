package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateWithoutKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Enabled() {
		t.Error("Enabled() = true without an API key")
	}

	_, err := client.Generate(context.Background(), "hello")
	if !IsConfigError(err) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
}

func TestGenerateChatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"hint\": \"ok\"}"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	text, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"hint": "ok"}` {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateLegacyTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"index": 0, "text": "legacy text"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	text, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "legacy text" {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantConfig bool
	}{
		{name: "unauthorized is config", status: http.StatusUnauthorized, wantConfig: true},
		{name: "forbidden is config", status: http.StatusForbidden, wantConfig: true},
		{name: "rate limit is transient", status: http.StatusTooManyRequests, wantConfig: false},
		{name: "server error is transient", status: http.StatusInternalServerError, wantConfig: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": "nope"}`))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
			_, err := client.Generate(context.Background(), "prompt")
			if err == nil {
				t.Fatal("Generate() error = nil")
			}
			if tt.wantConfig && !IsConfigError(err) {
				t.Errorf("error = %v, want ConfigError", err)
			}
			if !tt.wantConfig && !IsTransientError(err) {
				t.Errorf("error = %v, want TransientError", err)
			}
		})
	}
}

func TestGenerateNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), "prompt")
	if !IsTransientError(err) {
		t.Fatalf("error = %v, want TransientError", err)
	}
}

func TestGenerateMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), "prompt")
	if !IsParseError(err) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), "prompt")
	if !IsParseError(err) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}
