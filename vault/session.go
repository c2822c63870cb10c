package vault

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fahmaliyi/passvault/logging"
)

// Paths locates the three files that make up a vault.
type Paths struct {
	Salt   string
	Record string
	Data   string
}

// PathsIn returns the default file layout inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Salt:   filepath.Join(dir, "salt"),
		Record: filepath.Join(dir, "master.hash"),
		Data:   filepath.Join(dir, "passwords.enc"),
	}
}

// Session is one authenticated use of the vault.
type Session struct {
	ID       string
	Username string
	Vault    *Vault
}

// Initialized reports whether an owner has been recorded for p.
func Initialized(p Paths) (bool, error) {
	auth := &Authenticator{recordPath: p.Record}
	return auth.HasRecord()
}

// Create records username/password as owner (unless an owner already
// exists) and opens the vault with them.
func Create(p Paths, username, password string) (*Session, error) {
	auth, err := NewAuthenticator(p.Salt, p.Record)
	if err != nil {
		return nil, err
	}
	if _, err := auth.Bootstrap(username, password); err != nil {
		return nil, err
	}
	return open(auth, p, username, password)
}

// Open verifies the credentials and decrypts the vault. Wrong credentials
// fail with ErrAuthFailed before the data file is touched.
func Open(p Paths, username, password string) (*Session, error) {
	auth, err := NewAuthenticator(p.Salt, p.Record)
	if err != nil {
		return nil, err
	}
	return open(auth, p, username, password)
}

func open(auth *Authenticator, p Paths, username, password string) (*Session, error) {
	if err := auth.Login(username, password); err != nil {
		return nil, err
	}
	c, err := NewCipher(auth.SessionKey(password))
	if err != nil {
		return nil, err
	}
	v := New(p.Data, c)
	if err := v.Load(); err != nil {
		c.Zero()
		return nil, fmt.Errorf("open vault: %w", err)
	}
	s := &Session{ID: uuid.New().String(), Username: auth.Username(), Vault: v}
	logging.L.Info("session opened", "session", s.ID)
	return s, nil
}

// DefaultEmail is the address suggested when adding a new entry.
func (s *Session) DefaultEmail() string {
	return s.Username + "@gmail.com"
}

func (s *Session) Close() error {
	logging.L.Info("session closed", "session", s.ID)
	return s.Vault.Close()
}
