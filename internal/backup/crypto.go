package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// ErrWrongPassphrase is returned when a sealed backup cannot be opened
var ErrWrongPassphrase = errors.New("decryption failed: wrong passphrase or corrupted backup")

const (
	keySize          = 32 // AES-256
	nonceSize        = 12 // GCM standard nonce size
	saltSize         = 16
	pbkdf2Iterations = 100000
)

// Crypto seals backups with a key derived from a passphrase
type Crypto struct {
	aead cipher.AEAD
}

// NewCrypto derives the key from passphrase and salt
func NewCrypto(passphrase string, salt []byte) (*Crypto, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Crypto{aead: aead}, nil
}

// GenerateSalt returns a fresh random salt
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Seal encrypts plaintext; the nonce is prepended to the result
func (c *Crypto) Seal(plaintext, additional []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize, nonceSize+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal
func (c *Crypto) Open(sealed, additional []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, ErrWrongPassphrase
	}
	plaintext, err := c.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], additional)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

// Fingerprint identifies the key a passphrase and salt derive, without
// revealing it
func Fingerprint(passphrase string, salt []byte) string {
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	sum := sha256.Sum256(key)
	return base64.RawURLEncoding.EncodeToString(sum[:])[:12]
}
