package license

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, v Verifier) (*Manager, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := store.NewFileBackend(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := store.New(backend, store.WithLogger(logger.Nop()))
	m := NewManager(s, v, WithClock(func() time.Time { return testNow }), WithManagerLogger(logger.Nop()))
	return m, s, dir
}

func TestPromptLimitInfo(t *testing.T) {
	tests := []struct {
		name  string
		tier  model.Tier
		count int
		want  LimitInfo
	}{
		{"free at limit", model.TierFree, 11, LimitInfo{IsAtLimit: true, IsNearLimit: true, Remaining: 0, Total: 11}},
		{"free near limit", model.TierFree, 9, LimitInfo{IsNearLimit: true, Remaining: 2, Total: 11}},
		{"free defaults only", model.TierFree, 6, LimitInfo{Remaining: 5, Total: 11}},
		{"free over limit", model.TierFree, 14, LimitInfo{IsAtLimit: true, IsNearLimit: true, Remaining: 0, Total: 11}},
		{"pro", model.TierPro, 40, LimitInfo{Remaining: Unlimited, Total: Unlimited}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PromptLimitInfo(tt.tier, tt.count); got != tt.want {
				t.Errorf("PromptLimitInfo(%s, %d) = %+v, want %+v", tt.tier, tt.count, got, tt.want)
			}
		})
	}
}

func TestCanAddPrompt(t *testing.T) {
	if d := CanAddPrompt(model.TierFree, 10); !d.Allowed {
		t.Error("free with 10 prompts should be allowed")
	}
	d := CanAddPrompt(model.TierFree, 11)
	if d.Allowed {
		t.Fatal("free with 11 prompts should be denied")
	}
	if !strings.Contains(d.Reason, "Upgrade to PRO") {
		t.Errorf("reason lacks upgrade call to action: %q", d.Reason)
	}
	if d := CanAddPrompt(model.TierPro, 1000); !d.Allowed {
		t.Error("pro should always be allowed")
	}
}

func TestAllow(t *testing.T) {
	for _, f := range []Feature{FeatureFolders, FeatureDragToGroup, FeatureAI} {
		if d := Allow(model.TierFree, f); d.Allowed || d.Reason == "" {
			t.Errorf("free %s: %+v", f, d)
		}
		if d := Allow(model.TierPro, f); !d.Allowed {
			t.Errorf("pro %s denied", f)
		}
	}
}

func TestIsEntitled(t *testing.T) {
	past := testNow.Add(-time.Minute)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name string
		lic  model.License
		want model.Tier
	}{
		{"valid pro", model.License{Tier: model.TierPro, IsValid: true, ExpiresAt: &future}, model.TierPro},
		{"pro without expiry", model.License{Tier: model.TierPro, IsValid: true}, model.TierPro},
		{"expired pro", model.License{Tier: model.TierPro, IsValid: true, ExpiresAt: &past}, model.TierFree},
		{"invalid", model.License{Tier: model.TierPro, IsValid: false}, model.TierFree},
		{"empty", model.License{}, model.TierFree},
	}
	for _, tt := range tests {
		if got := IsEntitled(tt.lic, testNow); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestInfoExpiredProReadsAsFree(t *testing.T) {
	m, s, _ := newTestManager(t, nil)
	ctx := context.Background()

	past := testNow.Add(-24 * time.Hour)
	h, err := s.Load(ctx, store.NamespaceLicense)
	if err != nil {
		t.Fatal(err)
	}
	_ = h.Set("license", model.License{Key: "PB-AAAA-BBBB-CCCC-0000", Tier: model.TierPro, IsValid: true, ExpiresAt: &past})
	if err := h.Save(ctx); err != nil {
		t.Fatal(err)
	}

	lic, err := m.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if lic.Tier != model.TierFree || lic.IsValid {
		t.Errorf("expired license read as %+v", lic)
	}

	// stored bytes are untouched until the next write
	h, _ = s.Load(ctx, store.NamespaceLicense)
	var stored model.License
	_, _ = h.Get("license", &stored)
	if stored.Tier != model.TierPro || !stored.IsValid {
		t.Errorf("stored license rewritten: %+v", stored)
	}
}

func TestInfoDefaultsToFree(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	lic, err := m.Info(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if lic.Tier != model.TierFree || lic.IsValid || lic.Key != "" {
		t.Errorf("got %+v", lic)
	}
}

func TestSetKeyDemo(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	ctx := context.Background()

	key := m.DemoKey()
	if !ValidFormat(key) {
		t.Fatalf("demo key %q has invalid format", key)
	}

	lic, err := m.SetKey(ctx, strings.ToLower(key), " me@example.com ")
	if err != nil {
		t.Fatal(err)
	}
	if lic.Tier != model.TierPro || !lic.IsValid || lic.Email != "me@example.com" {
		t.Fatalf("got %+v", lic)
	}
	if lic.ExpiresAt == nil || !lic.ExpiresAt.Equal(testNow.Add(Validity)) {
		t.Errorf("expiresAt = %v", lic.ExpiresAt)
	}

	tier, err := m.Tier(ctx)
	if err != nil || tier != model.TierPro {
		t.Errorf("Tier = %s, %v", tier, err)
	}

	if err := m.Remove(ctx); err != nil {
		t.Fatal(err)
	}
	if tier, _ := m.Tier(ctx); tier != model.TierFree {
		t.Errorf("after remove tier = %s", tier)
	}
}

func TestSetKeyUnrecognizedStoredAsFree(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	lic, err := m.SetKey(context.Background(), "PB-AAAA-BBBB-CCCC-DDDD", "")
	if err != nil {
		t.Fatal(err)
	}
	if lic.Tier != model.TierFree || lic.IsValid || lic.ExpiresAt != nil {
		t.Errorf("got %+v", lic)
	}
	info, _ := m.Info(context.Background())
	if info.Key != "PB-AAAA-BBBB-CCCC-DDDD" {
		t.Errorf("key not stored: %+v", info)
	}
}

func TestSetKeyMalformedWritesNothing(t *testing.T) {
	m, _, dir := newTestManager(t, nil)
	for _, key := range []string{"", "PB-123", "XX-AAAA-BBBB-CCCC-0000", "PB-AAAA-BBBB-CCCC-00000"} {
		if _, err := m.SetKey(context.Background(), key, ""); !errors.Is(err, ErrInvalidKeyFormat) {
			t.Errorf("SetKey(%q) = %v", key, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, store.NamespaceLicense)); !os.IsNotExist(err) {
		t.Errorf("license document written for malformed key: %v", err)
	}
}

func TestRemoteVerifier(t *testing.T) {
	expires := testNow.Add(30 * 24 * time.Hour)
	var gotReq ActivateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/licenses/activate" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := ActivateResponse{Valid: gotReq.Key == "PB-GOOD-GOOD-GOOD-1234", Tier: "pro"}
		if resp.Valid {
			resp.ExpiresAt = &expires
		} else {
			resp.Reason = "license not found"
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	v := NewRemoteVerifier(srv.URL+"/", "device-1", "laptop")
	m, _, _ := newTestManager(t, v)
	ctx := context.Background()

	lic, err := m.SetKey(ctx, "PB-GOOD-GOOD-GOOD-1234", "")
	if err != nil {
		t.Fatal(err)
	}
	if lic.Tier != model.TierPro || lic.ExpiresAt == nil || !lic.ExpiresAt.Equal(expires) {
		t.Errorf("got %+v", lic)
	}
	if gotReq.DeviceID != "device-1" || gotReq.DeviceName != "laptop" {
		t.Errorf("request = %+v", gotReq)
	}

	lic, err = m.SetKey(ctx, "PB-BADD-BADD-BADD-0000", "")
	if err != nil {
		t.Fatal(err)
	}
	if lic.Tier != model.TierFree {
		t.Errorf("server rejection should store free, got %+v", lic)
	}
}

func TestRemoteVerifierHonoursTier(t *testing.T) {
	tests := []struct {
		tier      string
		wantValid bool
	}{
		{"pro", true},
		{"enterprise", true},
		{"", true},
		{"free", false},
		{"trial", false},
	}
	for _, tt := range tests {
		t.Run("tier="+tt.tier, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(ActivateResponse{Valid: true, Tier: tt.tier})
			}))
			defer srv.Close()

			got, err := NewRemoteVerifier(srv.URL, "d", "").Verify(context.Background(), "PB-AAAA-BBBB-CCCC-DDDD")
			if err != nil {
				t.Fatal(err)
			}
			if got.Valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if !tt.wantValid && (got.Tier != model.TierFree || got.Reason == "") {
				t.Errorf("refusal = %+v", got)
			}
		})
	}
}

func TestRemoteVerifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m, _, dir := newTestManager(t, NewRemoteVerifier(srv.URL, "d", ""))
	if _, err := m.SetKey(context.Background(), "PB-AAAA-BBBB-CCCC-0000", ""); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(filepath.Join(dir, store.NamespaceLicense)); !os.IsNotExist(err) {
		t.Error("nothing should be written when verification fails")
	}
}
