package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

const (
	saltLen  = 16
	keyLen   = 32
	argonT   = 1
	argonMem = 64 * 1024
	argonP   = 4
)

// AEAD is AES-256-GCM with an argon2id-derived key. String output is
// base64(salt || nonce || ciphertext); files carry the same layout raw.
type AEAD struct{}

func NewAEAD() *AEAD { return &AEAD{} }

func (a *AEAD) Seal(plaintext, key string) (string, error) {
	sealed, err := sealBytes([]byte(plaintext), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (a *AEAD) Open(sealed, key string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Wrap(err, "decode sealed payload")
	}
	plain, err := openBytes(raw, key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// SealFile re-encrypts the file at path in place.
func (a *AEAD) SealFile(path, key string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read file for encryption")
	}
	sealed, err := sealBytes(raw, key)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, sealed, 0o600), "write encrypted file")
}

func (a *AEAD) OpenFile(path, key string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read file for decryption")
	}
	plain, err := openBytes(raw, key)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, plain, 0o600), "write decrypted file")
}

func sealBytes(plaintext []byte, key string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(err, "generate salt")
	}
	gcm, err := newGCM(key, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "generate nonce")
	}
	out := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

func openBytes(raw []byte, key string) ([]byte, error) {
	if len(raw) < saltLen {
		return nil, errors.New("sealed payload too short")
	}
	salt, rest := raw[:saltLen], raw[saltLen:]
	gcm, err := newGCM(key, salt)
	if err != nil {
		return nil, err
	}
	if len(rest) < gcm.NonceSize() {
		return nil, errors.New("sealed payload too short")
	}
	nonce, ct := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	return plain, errors.Wrap(err, "open sealed payload")
}

func newGCM(key string, salt []byte) (cipher.AEAD, error) {
	derived := argon2.IDKey([]byte(key), salt, argonT, argonMem, argonP, keyLen)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, errors.Wrap(err, "init cipher")
	}
	gcm, err := cipher.NewGCM(block)
	return gcm, errors.Wrap(err, "init gcm")
}
