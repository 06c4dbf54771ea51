package server

// migrate runs database migrations
func (s *Server) migrate() error {
	migrations := []string{
		migrationLicenses,
		migrationActivations,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

const migrationLicenses = `
CREATE TABLE IF NOT EXISTS licenses (
    license_key VARCHAR(32) PRIMARY KEY,
    email VARCHAR(255) NOT NULL DEFAULT '',
    tier VARCHAR(32) NOT NULL DEFAULT 'pro',
    status VARCHAR(32) NOT NULL DEFAULT 'active',
    expires_at TIMESTAMPTZ,
    max_devices INTEGER DEFAULT 3,
    device_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_licenses_email ON licenses(email);
`

const migrationActivations = `
CREATE TABLE IF NOT EXISTS license_activations (
    id BIGSERIAL PRIMARY KEY,
    license_key VARCHAR(32) NOT NULL REFERENCES licenses(license_key) ON DELETE CASCADE,
    device_id TEXT NOT NULL,
    device_name TEXT NOT NULL DEFAULT '',
    platform TEXT NOT NULL DEFAULT '',
    activated_at TIMESTAMPTZ DEFAULT NOW(),
    last_used_at TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE(license_key, device_id)
);

CREATE INDEX IF NOT EXISTS idx_activations_license ON license_activations(license_key);
`
