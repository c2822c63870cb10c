package vault

import (
	"crypto/subtle"
	"fmt"

	"github.com/fahmaliyi/passvault/logging"
)

// Authenticator owns the salt and master record files. It decides who owns
// the vault and hands out session keys once a login has been verified.
type Authenticator struct {
	saltPath   string
	recordPath string
	salt       []byte
	username   string
}

// NewAuthenticator loads the salt at saltPath, creating and persisting a
// fresh one on first use. An existing salt is never replaced.
func NewAuthenticator(saltPath, recordPath string) (*Authenticator, error) {
	salt, created, err := loadOrCreate(saltPath, GenerateSalt)
	if err != nil {
		return nil, fmt.Errorf("load salt: %w", err)
	}
	if len(salt) != SaltLen {
		return nil, fmt.Errorf("salt file %s: %w", saltPath, ErrCorrupt)
	}
	if created {
		logging.Infof("created new salt at %s", saltPath)
	}
	return &Authenticator{saltPath: saltPath, recordPath: recordPath, salt: salt}, nil
}

// HasRecord reports whether a non-empty master record exists.
func (a *Authenticator) HasRecord() (bool, error) {
	rec, ok, err := readIfExists(a.recordPath)
	if err != nil {
		return false, err
	}
	return ok && len(rec) > 0, nil
}

// Bootstrap records username/password as the vault owner. It writes only
// when no record exists yet; otherwise it does nothing and returns false.
func (a *Authenticator) Bootstrap(username, password string) (bool, error) {
	exists, err := a.HasRecord()
	if err != nil {
		return false, fmt.Errorf("read master record: %w", err)
	}
	if exists {
		logging.Debugf("master record already present, bootstrap skipped")
		return false, nil
	}
	id := Identity(username, password)
	defer zero(id)
	hash := HashForVerification(id, a.salt)
	if err := atomicWriteFile(a.recordPath, hash, filePerm); err != nil {
		return false, fmt.Errorf("write master record: %w", err)
	}
	logging.Infof("master record created at %s", a.recordPath)
	return true, nil
}

// Verify checks username/password against the master record.
func (a *Authenticator) Verify(username, password string) (bool, error) {
	stored, ok, err := readIfExists(a.recordPath)
	if err != nil {
		return false, fmt.Errorf("read master record: %w", err)
	}
	if !ok || len(stored) == 0 {
		return false, ErrRecordNotFound
	}
	id := Identity(username, password)
	defer zero(id)
	hash := HashForVerification(id, a.salt)
	return subtle.ConstantTimeCompare(hash, stored) == 1, nil
}

// Login is Verify with a mismatch reported as ErrAuthFailed.
func (a *Authenticator) Login(username, password string) error {
	ok, err := a.Verify(username, password)
	if err != nil {
		return err
	}
	if !ok {
		logging.Warnf("failed login attempt")
		return ErrAuthFailed
	}
	a.username = username
	return nil
}

// SessionKey derives the cipher key for password with the stored salt.
// Only meaningful after a successful Login.
func (a *Authenticator) SessionKey(password string) []byte {
	return DeriveKey(password, a.salt)
}

func (a *Authenticator) Username() string { return a.username }
