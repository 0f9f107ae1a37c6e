package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientComplete(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		responseBody string
		want         string
		wantErr      string
	}{
		{
			name:         "Success",
			status:       http.StatusOK,
			responseBody: `{"choices":[{"message":{"role":"assistant","content":"  {\"era\":\"90s\"}  "}}]}`,
			want:         `{"era":"90s"}`,
		},
		{
			name:         "Upstream error message",
			status:       http.StatusUnauthorized,
			responseBody: `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantErr:      "Incorrect API key provided",
		},
		{
			name:         "Server error",
			status:       http.StatusInternalServerError,
			responseBody: `oops`,
			wantErr:      "status 500",
		},
		{
			name:         "No choices",
			status:       http.StatusOK,
			responseBody: `{"choices":[]}`,
			wantErr:      ErrEmptyCompletion.Error(),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var got chatRequest
			var auth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" || r.Method != http.MethodPost {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				auth = r.Header.Get("Authorization")
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "test-model"})
			text, err := c.Complete(context.Background(), Request{System: "sys", User: "hello", MaxTokens: 600, Temperature: 0.3})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if text != tt.want {
				t.Errorf("got %q want %q", text, tt.want)
			}
			if auth != "Bearer sk-test" {
				t.Errorf("missing bearer token, got %q", auth)
			}
			if got.Model != "test-model" || got.MaxTokens != 600 || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
				t.Errorf("unexpected request payload: %+v", got)
			}
		})
	}
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient(Config{})
	if c.Configured() {
		t.Fatal("client without key should not be configured")
	}
	if _, err := c.Complete(context.Background(), Request{User: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured got %v", err)
	}
}
