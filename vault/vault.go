package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/fahmaliyi/passvault/logging"
)

// Vault is the decrypted record collection plus its encrypted file.
// Every mutation rewrites the whole file before the in-memory state changes.
type Vault struct {
	Filename string
	cipher   *Cipher
	lock     *flock.Flock
	data     Collection
	savedAt  time.Time
	loaded   bool
}

func New(filename string, c *Cipher) *Vault {
	return &Vault{Filename: filename, cipher: c, lock: flock.New(filename + lockSuffix)}
}

// Load takes the vault lock and decrypts the file. A missing file yields an
// empty vault; a file that fails to decrypt is an error, never an empty vault.
func (v *Vault) Load() error {
	if !v.loaded {
		if err := os.MkdirAll(filepath.Dir(v.Filename), dirPerm); err != nil {
			return err
		}
		ok, err := v.lock.TryLock()
		if err != nil {
			return fmt.Errorf("lock vault: %w", err)
		}
		if !ok {
			return ErrVaultBusy
		}
	}

	raw, ok, err := readIfExists(v.Filename)
	if err != nil {
		v.unlock()
		return err
	}
	if !ok {
		v.data = Collection{}
		v.loaded = true
		logging.Debugf("no vault file at %s, starting empty", v.Filename)
		return nil
	}

	h, pt, err := v.cipher.open(raw)
	if err != nil {
		v.unlock()
		return err
	}
	defer zero(pt)

	data := Collection{}
	if err := json.Unmarshal(pt, &data); err != nil {
		v.unlock()
		return fmt.Errorf("decode vault: %w", ErrCorrupt)
	}
	v.data = data
	v.savedAt = time.Unix(int64(h.Timestamp), 0)
	v.loaded = true
	logging.Debugf("loaded vault with %d websites", len(data))
	return nil
}

func (v *Vault) save(next Collection) error {
	pt, err := json.MarshalIndent(next, "", "    ")
	if err != nil {
		return err
	}
	defer zero(pt)

	ct, err := v.cipher.Encrypt(pt)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(v.Filename, ct, filePerm); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	v.data = next
	if h, err := decodeHeader(ct); err == nil {
		v.savedAt = time.Unix(int64(h.Timestamp), 0)
	}
	return nil
}

// mutate applies fn to a copy of the collection and persists it. fn returns
// false when there is nothing to write.
func (v *Vault) mutate(fn func(Collection) (bool, error)) error {
	if !v.loaded {
		return ErrLocked
	}
	next := v.data.clone()
	changed, err := fn(next)
	if err != nil || !changed {
		return err
	}
	return v.save(next)
}

// CRUD operations

func (v *Vault) AddPassword(website, email, password string) error {
	return v.mutate(func(c Collection) (bool, error) {
		if c[website] == nil {
			c[website] = map[string]string{}
		}
		c[website][email] = password
		logging.Debugf("add %s / %s", website, email)
		return true, nil
	})
}

// Emails returns the emails stored for website in sorted order.
func (v *Vault) Emails(website string) []string {
	return sortedKeys(v.data[website])
}

// Websites returns all website names in sorted order.
func (v *Vault) Websites() []string {
	return sortedKeys(v.data)
}

func (v *Vault) Password(website, email string) (string, bool) {
	pw, ok := v.data[website][email]
	return pw, ok
}

// DeletePassword removes the pair and prunes the website when it becomes
// empty. Deleting a missing pair is not an error.
func (v *Vault) DeletePassword(website, email string) error {
	return v.mutate(func(c Collection) (bool, error) {
		if _, ok := c[website][email]; !ok {
			return false, nil
		}
		delete(c[website], email)
		if len(c[website]) == 0 {
			delete(c, website)
		}
		logging.Debugf("delete %s / %s", website, email)
		return true, nil
	})
}

func (v *Vault) UpdatePassword(website, email, newPassword string) error {
	return v.mutate(func(c Collection) (bool, error) {
		if _, ok := c[website][email]; !ok {
			return false, ErrNotFound
		}
		c[website][email] = newPassword
		return true, nil
	})
}

// UpdateEmail moves the password from oldEmail to newEmail. An existing
// newEmail entry is overwritten.
func (v *Vault) UpdateEmail(website, oldEmail, newEmail string) error {
	return v.mutate(func(c Collection) (bool, error) {
		pw, ok := c[website][oldEmail]
		if !ok {
			return false, ErrNotFound
		}
		if oldEmail == newEmail {
			return false, nil
		}
		c[website][newEmail] = pw
		delete(c[website], oldEmail)
		return true, nil
	})
}

// SavedAt is the creation time of the token last read or written, or the
// zero time for a vault that has never been saved.
func (v *Vault) SavedAt() time.Time { return v.savedAt }

// Close drops the decrypted records, wipes the key and releases the lock.
func (v *Vault) Close() error {
	v.data = nil
	v.loaded = false
	v.cipher.Zero()
	return v.lock.Unlock()
}

func (v *Vault) unlock() {
	v.loaded = false
	_ = v.lock.Unlock()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
