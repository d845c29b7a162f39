// Package securefield encrypts and decrypts sensitive banking fields
// before they touch the document store.  The cipher is AES-256-CTR with
// a fresh random IV per call; the IV is not secret and is stored next
// to the ciphertext, both hex encoded.  A single shared key supplied
// via configuration protects every field; key rotation and per-user
// keys are not supported.
package securefield

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// Field is an encrypted value at rest: hex encoded IV and ciphertext.
type Field struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// ErrBadKey is returned when the configured key does not decode to the
// 32 bytes AES-256 requires.
var ErrBadKey = errors.New("securefield: key must be 64 hex characters (32 bytes)")

// Codec performs symmetric encryption of individual fields.  Construct
// with NewCodec; the zero value is unusable.
type Codec struct {
	key []byte
}

// NewCodec parses the hex encoded key and returns a codec bound to it.
func NewCodec(hexKey string) (*Codec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, ErrBadKey
	}
	return &Codec{key: key}, nil
}

// Encrypt produces a Field for the given plaintext using a random IV.
func (c *Codec) Encrypt(plaintext string) (Field, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return Field{}, fmt.Errorf("securefield: new cipher: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return Field{}, fmt.Errorf("securefield: read iv: %w", err)
	}
	ct := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ct, []byte(plaintext))
	return Field{
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ct),
	}, nil
}

// Decrypt is the inverse of Encrypt.
func (c *Codec) Decrypt(f Field) (string, error) {
	iv, err := hex.DecodeString(f.IV)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("securefield: invalid iv")
	}
	ct, err := hex.DecodeString(f.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("securefield: invalid ciphertext")
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("securefield: new cipher: %w", err)
	}
	pt := make([]byte, len(ct))
	cipher.NewCTR(block, iv).XORKeyStream(pt, ct)
	return string(pt), nil
}
