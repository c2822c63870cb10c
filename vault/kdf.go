package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateSalt returns SaltLen bytes from the system CSPRNG.
func GenerateSalt() ([]byte, error) {
	return randBytes(SaltLen)
}

func stretch(secret, salt []byte) []byte {
	return pbkdf2.Key(secret, salt, Iterations, KeyLen, sha256.New)
}

// DeriveKey stretches password with salt into a KeyLen-byte cipher key.
// The same inputs always produce the same key.
func DeriveKey(password string, salt []byte) []byte {
	return stretch([]byte(password), salt)
}

// HashForVerification returns the URL-safe base64 form of the stretched
// identity. This is what the master record file holds.
func HashForVerification(identity, salt []byte) []byte {
	raw := stretch(identity, salt)
	defer zero(raw)
	out := make([]byte, base64.URLEncoding.EncodedLen(len(raw)))
	base64.URLEncoding.Encode(out, raw)
	return out
}

// Identity encodes a username/password pair so that no two distinct pairs
// share an encoding: the username is prefixed with its length.
func Identity(username, password string) []byte {
	b := make([]byte, 4, 4+len(username)+len(password))
	binary.BigEndian.PutUint32(b, uint32(len(username)))
	b = append(b, username...)
	return append(b, password...)
}
