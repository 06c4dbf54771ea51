package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/existflow/promptpicker/internal/model"
)

// Validity is how long a verified demo key stays pro
const Validity = 365 * 24 * time.Hour

// Verification is a verifier's verdict on a key
type Verification struct {
	Valid     bool
	Tier      model.Tier
	ExpiresAt *time.Time
	Reason    string
}

// Verifier decides whether a well-formed key unlocks pro
type Verifier interface {
	Verify(ctx context.Context, key string) (Verification, error)
}

// OfflineVerifier accepts demo keys whose body ends in 0000
type OfflineVerifier struct {
	Now func() time.Time
}

// Verify implements Verifier
func (v OfflineVerifier) Verify(ctx context.Context, key string) (Verification, error) {
	if err := ctx.Err(); err != nil {
		return Verification{}, err
	}
	if !ValidFormat(key) {
		return Verification{Tier: model.TierFree, Reason: "invalid key format"}, nil
	}

	body := strings.Join(strings.Split(key, "-")[1:], "")
	if !strings.HasSuffix(body, "0000") {
		return Verification{Tier: model.TierFree, Reason: "license key not recognized"}, nil
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	expires := now().Add(Validity).UTC()
	return Verification{Valid: true, Tier: model.TierPro, ExpiresAt: &expires}, nil
}

// RemoteVerifier activates keys on the license server
type RemoteVerifier struct {
	ServerURL  string
	DeviceID   string
	DeviceName string
	httpClient *http.Client
}

// NewRemoteVerifier creates a verifier for the server at serverURL
func NewRemoteVerifier(serverURL, deviceID, deviceName string) *RemoteVerifier {
	return &RemoteVerifier{
		ServerURL:  strings.TrimRight(serverURL, "/"),
		DeviceID:   deviceID,
		DeviceName: deviceName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ActivateRequest is sent to POST /api/v1/licenses/activate
type ActivateRequest struct {
	Key        string `json:"license_key"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name,omitempty"`
	Platform   string `json:"platform,omitempty"`
}

// ActivateResponse is the license server's verdict
type ActivateResponse struct {
	Valid     bool       `json:"valid"`
	Tier      string     `json:"tier"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Verify implements Verifier
func (v *RemoteVerifier) Verify(ctx context.Context, key string) (Verification, error) {
	body, err := json.Marshal(ActivateRequest{
		Key:        key,
		DeviceID:   v.DeviceID,
		DeviceName: v.DeviceName,
		Platform:   runtime.GOOS,
	})
	if err != nil {
		return Verification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.ServerURL+"/api/v1/licenses/activate", bytes.NewReader(body))
	if err != nil {
		return Verification{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Verification{}, fmt.Errorf("license check failed: %s", strings.TrimSpace(string(respBody)))
	}

	var result ActivateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Verification{}, fmt.Errorf("invalid license server response: %w", err)
	}

	if !result.Valid {
		return Verification{Tier: model.TierFree, Reason: result.Reason}, nil
	}
	if !unlocksPro(result.Tier) {
		return Verification{Tier: model.TierFree, Reason: fmt.Sprintf("a %s license does not include PRO", result.Tier)}, nil
	}
	return Verification{Valid: true, Tier: model.TierPro, ExpiresAt: result.ExpiresAt}, nil
}

// unlocksPro maps a server tier onto the client's feature set. Servers that
// predate the tier field send none.
func unlocksPro(tier string) bool {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "", string(model.TierPro), "enterprise":
		return true
	}
	return false
}
