// Package vault encodes and decodes journal entry bodies.
//
// Bodies are sealed with AES-256-GCM under a per-installation key kept in
// the data directory. Earlier releases stored bodies as plain UTF-8, so
// Decode falls back to passthrough for valid UTF-8 that does not carry a
// vault header; anything else is a decode failure the editor must survive.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/toonana/toonana/errors"
)

// header marks ciphertext produced by this package, so legacy plaintext
// bodies remain distinguishable.
var header = []byte("tnv1")

const keySize = 32

// Vault seals and opens entry bodies with a single symmetric key.
type Vault struct {
	aead cipher.AEAD
}

// Open loads the vault key from dataDir, generating one on first use.
func Open(dataDir string) (*Vault, error) {
	keyPath := filepath.Join(dataDir, "vault.key")

	key, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		key = make([]byte, keySize)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, errors.Wrap(err, "generate vault key")
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create data dir")
		}
		if err := os.WriteFile(keyPath, key, 0o600); err != nil {
			return nil, errors.Wrap(err, "write vault key")
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "read vault key")
	}

	if len(key) != keySize {
		return nil, errors.Newf("vault key has wrong size: %d bytes", len(key))
	}

	return New(key)
}

// New builds a vault from a raw 32-byte key. Used directly in tests.
func New(key []byte) (*Vault, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "init cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "init gcm")
	}
	return &Vault{aead: aead}, nil
}

// Encode seals plaintext into header || nonce || ciphertext.
func (v *Vault) Encode(plaintext string) []byte {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		// rand.Reader failing means the process is in a state where no
		// secure operation can proceed.
		panic(err)
	}

	out := make([]byte, 0, len(header)+len(nonce)+len(plaintext)+v.aead.Overhead())
	out = append(out, header...)
	out = append(out, nonce...)
	return v.aead.Seal(out, nonce, []byte(plaintext), nil)
}

// Decode opens an encoded body. Valid UTF-8 without the vault header is
// returned as-is (legacy plaintext). Returns ErrDecode for anything
// malformed; callers fall back to an empty body.
func (v *Vault) Decode(encoded []byte) (string, error) {
	if !bytes.HasPrefix(encoded, header) {
		if utf8.Valid(encoded) {
			return string(encoded), nil
		}
		return "", errors.Wrap(errors.ErrDecode, "body is neither sealed nor valid utf-8")
	}

	rest := encoded[len(header):]
	nonceSize := v.aead.NonceSize()
	if len(rest) < nonceSize {
		return "", errors.Wrap(errors.ErrDecode, "sealed body truncated")
	}

	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrDecode, err.Error())
	}
	return string(plaintext), nil
}
