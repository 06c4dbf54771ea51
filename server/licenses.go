package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/logger"
)

// License statuses
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
)

var (
	// ErrLicenseNotFound is returned for keys the server never issued
	ErrLicenseNotFound = errors.New("license not found")
	// ErrDeviceLimit is returned when a new device would exceed max_devices
	ErrDeviceLimit = errors.New("device limit reached")
)

// License is one issued key
type License struct {
	Key        string
	Email      string
	Tier       string
	Status     string
	ExpiresAt  *time.Time
	MaxDevices int // 0 means unlimited
}

// Device is a machine a key is activated on
type Device struct {
	ID       string
	Name     string
	Platform string
}

// LicenseRepo stores licenses and their activations
type LicenseRepo interface {
	GetLicense(ctx context.Context, key string) (License, error)
	// ActivateDevice records dev against key, or refreshes it when already
	// known. A new device past lic.MaxDevices fails with ErrDeviceLimit.
	ActivateDevice(ctx context.Context, lic License, dev Device, at time.Time) error
}

// PostgresLicenses is a LicenseRepo backed by the licenses tables
type PostgresLicenses struct {
	db *sql.DB
}

// NewPostgresLicenses creates a repo on db
func NewPostgresLicenses(db *sql.DB) *PostgresLicenses {
	return &PostgresLicenses{db: db}
}

// GetLicense implements LicenseRepo
func (r *PostgresLicenses) GetLicense(ctx context.Context, key string) (License, error) {
	var (
		lic        License
		expiresAt  sql.NullTime
		maxDevices sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT license_key, email, tier, status, expires_at, max_devices
		 FROM licenses WHERE license_key = $1`, key).
		Scan(&lic.Key, &lic.Email, &lic.Tier, &lic.Status, &expiresAt, &maxDevices)
	if errors.Is(err, sql.ErrNoRows) {
		return License{}, ErrLicenseNotFound
	}
	if err != nil {
		return License{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		lic.ExpiresAt = &t
	}
	if maxDevices.Valid {
		lic.MaxDevices = int(maxDevices.Int64)
	}
	return lic, nil
}

// ActivateDevice implements LicenseRepo. The license row is locked so two
// devices racing for the last seat cannot both win.
func (r *PostgresLicenses) ActivateDevice(ctx context.Context, lic License, dev Device, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT 1 FROM licenses WHERE license_key = $1 FOR UPDATE`, lic.Key); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE license_activations
		 SET last_used_at = $3, device_name = $4, platform = $5
		 WHERE license_key = $1 AND device_id = $2`,
		lic.Key, dev.ID, at, dev.Name, dev.Platform)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return tx.Commit()
	}

	if lic.MaxDevices > 0 {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM license_activations WHERE license_key = $1`, lic.Key).
			Scan(&count); err != nil {
			return err
		}
		if count >= lic.MaxDevices {
			return ErrDeviceLimit
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO license_activations (license_key, device_id, device_name, platform, activated_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		lic.Key, dev.ID, dev.Name, dev.Platform, at); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE licenses SET device_count = device_count + 1, updated_at = $2 WHERE license_key = $1`,
		lic.Key, at); err != nil {
		return err
	}
	return tx.Commit()
}

// handleActivate answers a client's RemoteVerifier. Refusals are 200 with
// valid=false; only malformed requests and storage failures are errors.
func (s *Server) handleActivate(c echo.Context) error {
	if s.licenses == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "license activation is not configured"})
	}

	var req license.ActivateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	req.Key = license.NormalizeKey(req.Key)
	req.DeviceID = strings.TrimSpace(req.DeviceID)

	if !license.ValidFormat(req.Key) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": license.ErrInvalidKeyFormat.Error()})
	}
	if req.DeviceID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "device_id required"})
	}

	ctx := c.Request().Context()
	now := s.now().UTC()

	lic, err := s.licenses.GetLicense(ctx, req.Key)
	if errors.Is(err, ErrLicenseNotFound) {
		return c.JSON(http.StatusOK, refuse("license key not recognized"))
	}
	if err != nil {
		logger.Error("License lookup failed", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "license lookup failed"})
	}

	if lic.Status != StatusActive {
		return c.JSON(http.StatusOK, refuse(fmt.Sprintf("license is %s", lic.Status)))
	}
	if lic.ExpiresAt != nil && lic.ExpiresAt.Before(now) {
		return c.JSON(http.StatusOK, refuse("license has expired"))
	}

	dev := Device{ID: req.DeviceID, Name: req.DeviceName, Platform: req.Platform}
	err = s.licenses.ActivateDevice(ctx, lic, dev, now)
	if errors.Is(err, ErrDeviceLimit) {
		return c.JSON(http.StatusOK, refuse(fmt.Sprintf("device limit reached (%d devices)", lic.MaxDevices)))
	}
	if err != nil {
		logger.Error("License activation failed", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "license activation failed"})
	}

	logger.Info("License activated",
		logger.F("tier", lic.Tier), logger.F("device", dev.ID), logger.F("platform", dev.Platform))

	tier := lic.Tier
	if tier == "" {
		tier = "pro"
	}
	return c.JSON(http.StatusOK, license.ActivateResponse{
		Valid:     true,
		Tier:      tier,
		ExpiresAt: lic.ExpiresAt,
	})
}

func refuse(reason string) license.ActivateResponse {
	return license.ActivateResponse{Valid: false, Tier: "free", Reason: reason}
}
