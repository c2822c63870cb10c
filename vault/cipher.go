package vault

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher seals and opens vault tokens with a session key.
//
// Token layout:
//
//	magic(4) | version(1) | unix time(8, big endian) | nonce(24) | ciphertext+tag
//
// The header is passed as additional data, so every field in it is covered
// by the Poly1305 tag.
type Cipher struct {
	key  []byte
	aead cipher.AEAD
	now  func() time.Time
}

type tokenHeader struct {
	Timestamp uint64
	Nonce     []byte
}

// NewCipher takes ownership of key; Zero wipes it.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeyLen {
		return nil, ErrInvalidKey
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{key: key, aead: aead, now: time.Now}, nil
}

func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	if c.aead == nil {
		return nil, ErrLocked
	}
	nonce, err := randBytes(NonceLen)
	if err != nil {
		return nil, err
	}
	hdr, err := encodeHeader(tokenHeader{Timestamp: uint64(c.now().Unix()), Nonce: nonce})
	if err != nil {
		return nil, err
	}
	out := make([]byte, headerLen, headerLen+len(plaintext)+chacha20poly1305.Overhead)
	copy(out, hdr)
	return c.aead.Seal(out, nonce, plaintext, hdr), nil
}

// Decrypt fails with ErrDecryption for truncated, tampered, foreign or
// wrong-key tokens.
func (c *Cipher) Decrypt(token []byte) ([]byte, error) {
	_, pt, err := c.open(token)
	return pt, err
}

// TokenTime returns the authenticated creation time of token.
func (c *Cipher) TokenTime(token []byte) (time.Time, error) {
	h, _, err := c.open(token)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(h.Timestamp), 0), nil
}

func (c *Cipher) open(token []byte) (tokenHeader, []byte, error) {
	if c.aead == nil {
		return tokenHeader{}, nil, ErrLocked
	}
	h, err := decodeHeader(token)
	if err != nil {
		return h, nil, err
	}
	pt, err := c.aead.Open(nil, h.Nonce, token[headerLen:], token[:headerLen])
	if err != nil {
		return h, nil, ErrDecryption
	}
	return h, pt, nil
}

// Zero wipes the key. The cipher is unusable afterwards.
func (c *Cipher) Zero() {
	zero(c.key)
	c.aead = nil
}

func encodeHeader(h tokenHeader) ([]byte, error) {
	if len(h.Nonce) != NonceLen {
		return nil, fmt.Errorf("nonce length %d", len(h.Nonce))
	}
	buf := bytes.NewBuffer(make([]byte, 0, headerLen))

	buf.WriteString(Magic)
	buf.WriteByte(Version)
	if err := binary.Write(buf, binary.BigEndian, h.Timestamp); err != nil {
		return nil, err
	}
	buf.Write(h.Nonce)

	return buf.Bytes(), nil
}

func decodeHeader(raw []byte) (tokenHeader, error) {
	var h tokenHeader
	if len(raw) < headerLen+chacha20poly1305.Overhead {
		return h, ErrDecryption
	}
	if string(raw[:len(Magic)]) != Magic || raw[len(Magic)] != Version {
		return h, ErrDecryption
	}
	off := len(Magic) + 1
	h.Timestamp = binary.BigEndian.Uint64(raw[off : off+8])
	h.Nonce = raw[off+8 : headerLen]
	return h, nil
}
