package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/existflow/promptpicker/internal/model"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func proTier(context.Context) (model.Tier, error)  { return model.TierPro, nil }
func freeTier(context.Context) (model.Tier, error) { return model.TierFree, nil }

func completionServer(t *testing.T, status int, body string, seen *chatRequest, headers *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		if headers != nil {
			*headers = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"  Better prompt  "},"finish_reason":"stop"}]}`

func TestEnhanceSendsPromptAndHeaders(t *testing.T) {
	var req chatRequest
	var headers http.Header
	srv := completionServer(t, http.StatusOK, okBody, &req, &headers)

	svc, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/"}, proTier)
	if err != nil {
		t.Fatal(err)
	}

	out, err := svc.Enhance(context.Background(), "Explain this code", "make it shorter")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Better prompt" {
		t.Errorf("out = %q", out)
	}

	if req.Model != DefaultModel || req.MaxTokens != 2000 || req.Temperature != 0.7 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, `Original prompt: "Explain this code"`) ||
		!strings.Contains(req.Messages[1].Content, `Enhancement request: "make it shorter"`) {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}

	if headers.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("authorization = %q", headers.Get("Authorization"))
	}
	if headers.Get("HTTP-Referer") != appReferer || headers.Get("X-Title") != appTitle {
		t.Errorf("attribution headers = %v", headers)
	}
}

func TestGenerateUsesDescription(t *testing.T) {
	var req chatRequest
	srv := completionServer(t, http.StatusOK, okBody, &req, nil)
	svc, _ := New(Config{APIKey: "k", BaseURL: srv.URL, Model: "custom/model"}, nil)

	if _, err := svc.Generate(context.Background(), "review Go code"); err != nil {
		t.Fatal(err)
	}
	if req.Model != "custom/model" {
		t.Errorf("model = %q", req.Model)
	}
	if !strings.Contains(req.Messages[1].Content, `Create a prompt based on this description: "review Go code"`) {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, ErrInvalidKey.Error()},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate"}}`, ErrRateLimited.Error()},
		{"provider message", http.StatusBadRequest, `{"error":{"message":"model not found","type":"invalid"}}`, "model not found"},
		{"no message", http.StatusBadGateway, `upstream down`, ErrRequestFailed.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.status, tt.body, nil, nil)
			svc, _ := New(Config{APIKey: "k", BaseURL: srv.URL}, nil)

			_, err := svc.Generate(context.Background(), "x")
			if err == nil || err.Error() != tt.want {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestEmptyChoices(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"id":"c","choices":[]}`, nil, nil)
	svc, _ := New(Config{APIKey: "k", BaseURL: srv.URL}, nil)

	out, err := svc.Generate(context.Background(), "x")
	if err != nil || out != "No response generated" {
		t.Errorf("out = %q, err = %v", out, err)
	}
}

func TestFreeTierIsDenied(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	svc, _ := New(Config{APIKey: "k", BaseURL: srv.URL}, freeTier)
	_, err := svc.Enhance(context.Background(), "a", "b")

	var denied *DeniedError
	if !errors.As(err, &denied) || !strings.Contains(denied.Reason, "PRO") {
		t.Fatalf("err = %v", err)
	}
	if calls != 0 {
		t.Error("denied call reached the provider")
	}
}

func TestMissingKey(t *testing.T) {
	if _, err := New(Config{}, nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v", err)
	}
}
