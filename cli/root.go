package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fahmaliyi/passvault/config"
	"github.com/fahmaliyi/passvault/logging"
	"github.com/fahmaliyi/passvault/util"
	"github.com/fahmaliyi/passvault/vault"
)

// app carries everything a command needs for one process run.
type app struct {
	cfg     config.Config
	cfgFile string
	prompt  *Prompter
	out     io.Writer
	clip    Clipboard
	runTUI  func(*app, *vault.Session) error
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{
		prompt: NewPrompter(in, out),
		out:    out,
		clip:   systemClipboard{},
		runTUI: RunTUI,
	}
}

// NewRootCommand builds the command tree reading from in and writing to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	return newApp(in, out).rootCommand(in)
}

func (a *app) rootCommand(in io.Reader) *cobra.Command {
	root := &cobra.Command{
		Use:   "passvault",
		Short: "Local encrypted password vault",
		Long: `passvault keeps website/email/password records in a single file encrypted
with a key derived from your master password. Run without a subcommand to
open the interactive browser.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *vault.Session) error { return a.runTUI(a, s) })
		},
	}
	root.SetIn(in)
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: <data-dir>/passvault.yaml)")
	pf.String("data-dir", "", "directory holding the vault files")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.Duration("clipboard-timeout", 0, "clear copied passwords after this long (0 keeps them)")

	root.AddCommand(
		a.addCommand(),
		a.getCommand(),
		a.listCommand(),
		a.deleteCommand(),
		a.updatePasswordCommand(),
		a.updateEmailCommand(),
		a.generateCommand(),
		a.statusCommand(),
		a.shellCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	logging.Debugf("data dir %s", cfg.DataDir)
	return nil
}

func (a *app) paths() vault.Paths {
	return vault.PathsIn(a.cfg.DataDir)
}

// login opens a session, running first-time setup when no owner exists.
func (a *app) login() (*vault.Session, error) {
	p := a.paths()
	initialized, err := vault.Initialized(p)
	if err != nil {
		return nil, err
	}
	if !initialized {
		return a.setupVault(p)
	}

	username, err := a.prompt.Line("Username: ")
	if err != nil {
		return nil, err
	}
	password, err := a.prompt.Secret("Master password: ")
	if err != nil {
		return nil, err
	}
	return vault.Open(p, username, password)
}

func (a *app) setupVault(p vault.Paths) (*vault.Session, error) {
	fmt.Fprintln(a.out, "No vault found. Setting up a new one in", a.cfg.DataDir)
	username, err := a.prompt.Line("Choose a username: ")
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}
	password, err := a.prompt.Secret("Choose a master password: ")
	if err != nil {
		return nil, err
	}
	if err := util.CheckPassword(password); err != nil {
		return nil, fmt.Errorf("master password rejected: %w", err)
	}
	confirm, err := a.prompt.Secret("Repeat master password: ")
	if err != nil {
		return nil, err
	}
	if confirm != password {
		return nil, errors.New("passwords do not match")
	}
	s, err := vault.Create(p, username, password)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(a.out, "Vault created.")
	return s, nil
}

func (a *app) withSession(fn func(*vault.Session) error) error {
	s, err := a.login()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Warnf("close session: %v", err)
		}
	}()
	return fn(s)
}

// describe turns vault errors into messages for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, vault.ErrAuthFailed):
		return "invalid username or password"
	case errors.Is(err, vault.ErrDecryption), errors.Is(err, vault.ErrCorrupt):
		return "vault data is corrupted or unreadable"
	case errors.Is(err, vault.ErrVaultBusy):
		return "the vault is open in another passvault process"
	case errors.Is(err, vault.ErrRecordNotFound):
		return "no vault has been set up yet"
	case errors.Is(err, vault.ErrNotFound):
		return "no such entry"
	default:
		return err.Error()
	}
}

// Execute runs passvault with the process arguments and returns the exit code.
func Execute() int {
	root := NewRootCommand(os.Stdin, os.Stdout)
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", describe(err))
		return 1
	}
	return 0
}
