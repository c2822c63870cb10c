package cli

import (
	"time"

	"github.com/atotto/clipboard"

	"github.com/fahmaliyi/passvault/logging"
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// clearIfUnchanged empties the clipboard unless something else was copied
// since secret.
func clearIfUnchanged(c Clipboard, secret string) {
	cur, err := c.ReadAll()
	if err != nil {
		logging.Debugf("clipboard read: %v", err)
		return
	}
	if cur == secret {
		if err := c.WriteAll(""); err != nil {
			logging.Warnf("clear clipboard: %v", err)
		}
	}
}

// copySecret copies secret and clears it after timeout in the background.
// A zero timeout leaves the clipboard alone.
func copySecret(c Clipboard, secret string, timeout time.Duration) error {
	if err := c.WriteAll(secret); err != nil {
		return err
	}
	if timeout > 0 {
		time.AfterFunc(timeout, func() { clearIfUnchanged(c, secret) })
	}
	return nil
}
