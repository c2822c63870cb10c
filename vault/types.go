package vault

import "errors"

const (
	SaltLen     = 16
	KeyLen      = 32
	NonceLen    = 24
	Iterations  = 100_000
	Magic       = "PVLT"
	Version     = 0x01
	headerLen   = len(Magic) + 1 + 8 + NonceLen
	filePerm    = 0600
	dirPerm     = 0700
	lockSuffix  = ".lock"
	tempPattern = "pvlt-*"
)

var (
	ErrRecordNotFound = errors.New("vault: master record not found")
	ErrAuthFailed     = errors.New("vault: authentication failed")
	ErrDecryption     = errors.New("vault: decryption failed")
	ErrNotFound       = errors.New("vault: entry not found")
	ErrCorrupt        = errors.New("vault: corrupt file")
	ErrVaultBusy      = errors.New("vault: in use by another process")
	ErrLocked         = errors.New("vault: locked")
	ErrInvalidKey     = errors.New("vault: invalid key length")
)

// Collection maps website -> email -> password.
type Collection map[string]map[string]string

func (c Collection) clone() Collection {
	out := make(Collection, len(c))
	for site, emails := range c {
		m := make(map[string]string, len(emails))
		for email, pw := range emails {
			m[email] = pw
		}
		out[site] = m
	}
	return out
}
