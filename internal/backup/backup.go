// Package backup exports the prompt library to a portable file and reads it
// back, optionally sealed with a passphrase.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/promptpicker/internal/model"
)

const (
	kind    = "promptpicker-backup"
	version = 1
)

var (
	ErrNotBackup          = errors.New("file is not a prompt picker backup")
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrPassphraseRequired = errors.New("backup is encrypted, a passphrase is required")
)

// Library is the content of a backup
type Library struct {
	Prompts  []model.Prompt `json:"prompts"`
	Folders  []model.Folder `json:"folders"`
	Settings model.Settings `json:"settings"`
}

// envelope is the file format. Exactly one of Library and Sealed is set.
type envelope struct {
	Kind        string    `json:"kind"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	Salt        []byte    `json:"salt,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Sealed      []byte    `json:"sealed,omitempty"`
	Library     *Library  `json:"library,omitempty"`
}

// Info describes a backup without opening it
type Info struct {
	CreatedAt   time.Time
	Encrypted   bool
	Fingerprint string
}

// Export encodes lib. A non-empty passphrase seals the content.
func Export(lib Library, passphrase string, now time.Time) ([]byte, error) {
	env := envelope{Kind: kind, Version: version, CreatedAt: now.UTC()}

	if passphrase == "" {
		env.Library = &lib
		return json.MarshalIndent(env, "", "  ")
	}

	plain, err := json.Marshal(lib)
	if err != nil {
		return nil, err
	}
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	c, err := NewCrypto(passphrase, salt)
	if err != nil {
		return nil, err
	}
	sealed, err := c.Seal(plain, []byte(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt backup: %w", err)
	}

	env.Salt = salt
	env.Fingerprint = Fingerprint(passphrase, salt)
	env.Sealed = sealed
	return json.MarshalIndent(env, "", "  ")
}

func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Kind != kind {
		return nil, ErrNotBackup
	}
	if env.Version != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	return &env, nil
}

// Inspect reports whether data is encrypted and when it was made
func Inspect(data []byte) (Info, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return Info{}, err
	}
	return Info{CreatedAt: env.CreatedAt, Encrypted: env.Sealed != nil, Fingerprint: env.Fingerprint}, nil
}

// Import decodes a backup made by Export
func Import(data []byte, passphrase string) (*Library, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	if env.Sealed == nil {
		if env.Library == nil {
			return nil, ErrNotBackup
		}
		return env.Library, nil
	}

	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	c, err := NewCrypto(passphrase, env.Salt)
	if err != nil {
		return nil, err
	}
	plain, err := c.Open(env.Sealed, []byte(kind))
	if err != nil {
		return nil, err
	}

	var lib Library
	if err := json.Unmarshal(plain, &lib); err != nil {
		return nil, fmt.Errorf("backup content is corrupt: %w", err)
	}
	return &lib, nil
}
