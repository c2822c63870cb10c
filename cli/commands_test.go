package cli

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fahmaliyi/passvault/vault"
)

const (
	testUser   = "alice"
	testMaster = "Str0ng!Pass12"
	testSecret = "An0ther!Pw99"
)

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (f *fakeClipboard) ReadAll() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, nil
}

func (f *fakeClipboard) WriteAll(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	return nil
}

func (f *fakeClipboard) get() string {
	s, _ := f.ReadAll()
	return s
}

// isolate keeps config lookup away from the real home and working directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, home)
	return t.TempDir()
}

type harness struct {
	t    *testing.T
	dir  string
	clip *fakeClipboard
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, dir: isolate(t), clip: &fakeClipboard{}}
}

// run executes one passvault invocation with input as stdin.
func (h *harness) run(input string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(input)
	a := newApp(in, &out)
	a.clip = h.clip
	a.runTUI = func(*app, *vault.Session) error {
		_, err := out.WriteString("tui started\n")
		return err
	}
	root := a.rootCommand(in)
	root.SetArgs(append([]string{"--data-dir", h.dir, "--clipboard-timeout", "0"}, args...))
	err := root.Execute()
	return out.String(), err
}

func login(extra ...string) string {
	return strings.Join(append([]string{testUser, testMaster}, extra...), "\n") + "\n"
}

// seed creates the vault with one entry for example.com.
func (h *harness) seed() {
	h.t.Helper()
	input := strings.Join([]string{testUser, testMaster, testMaster, testSecret}, "\n") + "\n"
	out, err := h.run(input, "add", "example.com", "alice@example.com")
	require.NoError(h.t, err)
	require.Contains(h.t, out, "Vault created.")
	require.Contains(h.t, out, "Added example.com / alice@example.com")
}

func TestFirstRunSetup(t *testing.T) {
	h := newHarness(t)
	h.seed()

	ok, err := vault.Initialized(vault.PathsIn(h.dir))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.FileExists(t, vault.PathsIn(h.dir).Data)
}

func TestFirstRunSetup_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty username", "\n", "username cannot be empty"},
		{"weak master", "alice\nweak\n", "master password rejected"},
		{"mismatch", "alice\n" + testMaster + "\nStr0ng!Pass13\n", "passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.run(tt.input, "list")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			ok, err := vault.Initialized(vault.PathsIn(h.dir))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestGet(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run(login(), "get", "https://www.example.com/login")
	require.NoError(t, err)
	assert.Contains(t, out, testSecret)

	_, err = h.run(login(), "get", "nowhere.org")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestGet_Copy(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run(login(), "get", "example.com", "--copy")
	require.NoError(t, err)
	assert.Contains(t, out, "Copied to clipboard.")
	assert.NotContains(t, out, testSecret)
	assert.Equal(t, testSecret, h.clip.get())
}

func TestGet_CopyClearsAfterTimeout(t *testing.T) {
	h := newHarness(t)
	h.seed()

	_, err := h.run(login(), "get", "example.com", "--copy", "--clipboard-timeout", "20ms")
	require.NoError(t, err)
	assert.Empty(t, h.clip.get())
}

func TestGet_SeveralEmailsNeedsOne(t *testing.T) {
	h := newHarness(t)
	h.seed()
	_, err := h.run(login(testSecret), "add", "example.com", "bob@example.com")
	require.NoError(t, err)

	out, err := h.run(login(), "get", "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 2 emails")
	assert.Contains(t, out, "bob@example.com")

	out, err = h.run(login(), "get", "example.com", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, testSecret)
}

func TestAdd_Generate(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run(login(), "add", "github", "alice@example.com", "-g", "-c", "--length", "24")
	require.NoError(t, err)
	assert.Contains(t, out, "Added github.com / alice@example.com")
	assert.Len(t, h.clip.get(), 24)
}

func TestAdd_DefaultEmailAndReplace(t *testing.T) {
	h := newHarness(t)
	h.seed()

	// empty email answer takes the default, empty password generates one
	out, err := h.run(login("", ""), "add", "mail.google.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Added google.com / alice@gmail.com")
	assert.Contains(t, out, "Generated a new password.")

	out, err = h.run(login(testSecret), "add", "google.com", "alice@gmail.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Replaced google.com / alice@gmail.com")
}

func TestAdd_Rejections(t *testing.T) {
	h := newHarness(t)
	h.seed()

	_, err := h.run(login(), "add", "example.com", "not-an-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email")

	_, err = h.run(login("weak"), "add", "example.com", "bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password rejected")
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.seed()
	_, err := h.run(login(testSecret), "add", "github.com", "bob@example.com")
	require.NoError(t, err)

	out, err := h.run(login(), "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "example.com"), strings.Index(out, "github.com"))

	out, err = h.run(login(), "list", "github.com")
	require.NoError(t, err)
	assert.Contains(t, out, "bob@example.com")
	assert.NotContains(t, out, "alice@example.com")
}

func TestWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.seed()

	_, err := h.run("alice\nStr0ng!Pass13\n", "list")
	require.ErrorIs(t, err, vault.ErrAuthFailed)
	assert.Equal(t, "invalid username or password", describe(err))

	_, err = h.run("bob\n"+testMaster+"\n", "list")
	assert.ErrorIs(t, err, vault.ErrAuthFailed)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run(login("n"), "delete", "example.com", "alice@example.com")
	require.NoError(t, err)
	assert.NotContains(t, out, "Deleted")

	out, err = h.run(login("y"), "delete", "example.com", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted example.com / alice@example.com")

	out, err = h.run(login(), "delete", "example.com", "alice@example.com", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing stored")

	out, err = h.run(login(), "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "example.com\n")
}

func TestUpdatePassword(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run(login("N3w!Secret77"), "update-password", "example.com", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated password")

	out, err = h.run(login(), "get", "example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "N3w!Secret77")

	_, err = h.run(login(), "update-password", "example.com", "bob@example.com", "-g")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestUpdateEmail(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run(login(), "update-email", "example.com", "alice@example.com", "al@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed alice@example.com to al@example.com")

	out, err = h.run(login(), "get", "example.com", "al@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, testSecret)

	_, err = h.run(login(), "update-email", "example.com", "alice@example.com", "x@example.com")
	require.ErrorIs(t, err, vault.ErrNotFound)
	assert.Equal(t, "no such entry", describe(err))

	_, err = h.run(login(), "update-email", "example.com", "al@example.com", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email")
}

func TestGenerate(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "generate", "--length", "20")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 20)

	_, err = h.run("", "generate", "--length", "4")
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized:    no")

	h.seed()
	out, err = h.run(login(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Owner:          alice")
	assert.Contains(t, out, "Entries:        1 across 1 websites")
	assert.NotContains(t, out, "never")
}

func TestRootOpensTUI(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out, err := h.run(login())
	require.NoError(t, err)
	assert.Contains(t, out, "tui started")
}

func TestConfigFileMissing(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "--config", h.dir+"/nope.yaml", "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "vault data is corrupted or unreadable", describe(vault.ErrDecryption))
	assert.Equal(t, "vault data is corrupted or unreadable", describe(vault.ErrCorrupt))
	assert.Equal(t, "the vault is open in another passvault process", describe(vault.ErrVaultBusy))
	assert.Equal(t, "no vault has been set up yet", describe(vault.ErrRecordNotFound))
	assert.Equal(t, assert.AnError.Error(), describe(assert.AnError))
}

func TestCopySecret(t *testing.T) {
	clip := &fakeClipboard{}
	require.NoError(t, copySecret(clip, "s3cret", 10*time.Millisecond))
	assert.Equal(t, "s3cret", clip.get())
	assert.Eventually(t, func() bool { return clip.get() == "" }, time.Second, 5*time.Millisecond)

	// a newer copy is left alone
	require.NoError(t, copySecret(clip, "s3cret", 10*time.Millisecond))
	require.NoError(t, clip.WriteAll("other"))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, "other", clip.get())

	require.NoError(t, copySecret(clip, "kept", 0))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, "kept", clip.get())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
