package vault

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeyLen)
}

func newTestCipher(t *testing.T, b byte) *Cipher {
	t.Helper()
	c, err := NewCipher(testKey(b))
	require.NoError(t, err)
	return c
}

func TestNewCipher_KeyLength(t *testing.T) {
	_, err := NewCipher(make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t, 1)
	for _, pt := range [][]byte{{}, []byte("x"), []byte(`{"github.com":{"a@x.com":"pw"}}`), bytes.Repeat([]byte("z"), 1<<16)} {
		ct, err := c.Encrypt(pt)
		require.NoError(t, err)
		got, err := c.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, len(pt), len(got))
		assert.True(t, bytes.Equal(pt, got))
	}
}

func TestCipher_FreshNonce(t *testing.T) {
	c := newTestCipher(t, 1)
	a, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipher_WrongKey(t *testing.T) {
	ct, err := newTestCipher(t, 1).Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = newTestCipher(t, 2).Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestCipher_Tampering(t *testing.T) {
	c := newTestCipher(t, 1)
	ct, err := c.Encrypt([]byte("secret payload"))
	require.NoError(t, err)

	for _, i := range []int{0, len(Magic), len(Magic) + 3, headerLen - 1, headerLen, len(ct) - 1} {
		bad := bytes.Clone(ct)
		bad[i] ^= 0x01
		_, err := c.Decrypt(bad)
		assert.ErrorIs(t, err, ErrDecryption, "flipped byte %d", i)
	}

	for _, n := range []int{0, 3, headerLen, len(ct) - 1} {
		_, err := c.Decrypt(ct[:n])
		assert.ErrorIs(t, err, ErrDecryption, "truncated to %d", n)
	}
}

func TestCipher_TokenTime(t *testing.T) {
	c := newTestCipher(t, 1)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	ct, err := c.Encrypt([]byte("x"))
	require.NoError(t, err)
	ts, err := c.TokenTime(ct)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(ts))

	_, err = newTestCipher(t, 9).TokenTime(ct)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestCipher_Zero(t *testing.T) {
	key := testKey(5)
	c, err := NewCipher(key)
	require.NoError(t, err)
	c.Zero()

	assert.Equal(t, make([]byte, KeyLen), key)
	_, err = c.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrLocked)
}
