package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
)

// Optional at-rest encryption of stored values. When CCSLEDGER_DEK is unset
// the store works on plaintext; when set it must be a base64-encoded 32-byte
// key and every value is sealed with AES-256-GCM. Encryption is local to this
// node's disk and does not affect ledger semantics or replay.

// getDEK retrieves the Data Encryption Key from the environment.
func getDEK() ([]byte, error) {
	dekB64 := os.Getenv("CCSLEDGER_DEK")
	if dekB64 == "" {
		return nil, nil
	}
	dek, err := base64.StdEncoding.DecodeString(dekB64)
	if err != nil {
		return nil, errors.New("failed to decode CCSLEDGER_DEK: " + err.Error())
	}
	if len(dek) != 32 {
		return nil, errors.New("CCSLEDGER_DEK must be 32 bytes (base64-encoded)")
	}
	return dek, nil
}

// sealValue encrypts plaintext with AES-256-GCM and a random nonce, or passes
// it through when no DEK is configured.
func sealValue(plaintext []byte) ([]byte, error) {
	dek, err := getDEK()
	if err != nil {
		return nil, err
	}
	if dek == nil {
		return plaintext, nil
	}
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// openValue decrypts a sealed value, or passes it through when no DEK is
// configured.
func openValue(ciphertext []byte) ([]byte, error) {
	dek, err := getDEK()
	if err != nil {
		return nil, err
	}
	if dek == nil {
		return ciphertext, nil
	}
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ct, nil)
}
