package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/fahmaliyi/passvault/util"
	"github.com/fahmaliyi/passvault/vault"
)

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	headColor = color.New(color.Bold)
)

const shellHelp = `Commands: l=list websites, e N=emails of website N, s N=show, c N=copy,
          a=add, u N=update password, r N=rename email, d N=delete,
          g [len]=generate, h=help, q=quit`

type shell struct {
	a       *app
	s       *vault.Session
	sites   []string
	website string
	emails  []string
}

// RunShell is the line-oriented interface. Numbers refer to the most recent
// listing.
func RunShell(a *app, s *vault.Session) error {
	sh := &shell{a: a, s: s}
	fmt.Fprintf(a.out, "Logged in as %s.\n%s\n", s.Username, shellHelp)

	for {
		line, err := a.prompt.Line("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "q" {
			fmt.Fprintln(a.out, "Exiting.")
			return nil
		}
		if err := sh.dispatch(parts[0], parts[1:]); err != nil {
			errColor.Fprintln(a.out, describe(err))
		}
	}
}

func (sh *shell) dispatch(cmd string, args []string) error {
	switch cmd {
	case "h":
		fmt.Fprintln(sh.a.out, shellHelp)
	case "l":
		sh.listWebsites()
	case "e":
		i, err := sh.index(args, len(sh.sites), "website")
		if err != nil {
			return err
		}
		sh.website = sh.sites[i]
		sh.listEmails()
	case "a":
		return sh.add()
	case "g":
		return sh.generate(args)
	case "s", "c", "u", "r", "d":
		if sh.website == "" {
			return errors.New("pick a website first with e N")
		}
		i, err := sh.index(args, len(sh.emails), "email")
		if err != nil {
			return err
		}
		return sh.onEmail(cmd, sh.emails[i])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (sh *shell) index(args []string, n int, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("specify a %s number", what)
	}
	num, err := strconv.Atoi(args[0])
	if err != nil || num < 1 || num > n {
		return 0, fmt.Errorf("invalid %s number %q", what, args[0])
	}
	return num - 1, nil
}

func (sh *shell) listWebsites() {
	sh.sites = sh.s.Vault.Websites()
	if len(sh.sites) == 0 {
		fmt.Fprintln(sh.a.out, "The vault is empty.")
		return
	}
	headColor.Fprintln(sh.a.out, "Websites:")
	for i, w := range sh.sites {
		fmt.Fprintf(sh.a.out, "%d) %s\n", i+1, w)
	}
}

func (sh *shell) listEmails() {
	sh.emails = sh.s.Vault.Emails(sh.website)
	headColor.Fprintf(sh.a.out, "%s:\n", sh.website)
	for i, e := range sh.emails {
		fmt.Fprintf(sh.a.out, "%d) %s\n", i+1, e)
	}
}

func (sh *shell) onEmail(cmd, email string) error {
	v := sh.s.Vault
	out := sh.a.out
	switch cmd {
	case "s":
		pw, ok := v.Password(sh.website, email)
		if !ok {
			return vault.ErrNotFound
		}
		fmt.Fprintf(out, "Website: %s\nEmail: %s\nPassword: %s\n", sh.website, email, pw)
	case "c":
		pw, ok := v.Password(sh.website, email)
		if !ok {
			return vault.ErrNotFound
		}
		if err := copySecret(sh.a.clip, pw, sh.a.cfg.ClipboardTimeout); err != nil {
			return err
		}
		okColor.Fprintf(out, "Password copied to clipboard (clears in %s).\n", sh.a.cfg.ClipboardTimeout)
	case "u":
		pw, err := sh.a.readNewPassword(false, "New password (empty to generate): ")
		if err != nil {
			return err
		}
		if err := v.UpdatePassword(sh.website, email, pw); err != nil {
			return err
		}
		okColor.Fprintln(out, "Password updated.")
	case "r":
		newEmail, err := sh.a.prompt.Line("New email: ")
		if err != nil {
			return err
		}
		if err := util.CheckEmail(newEmail); err != nil {
			return fmt.Errorf("invalid email: %w", err)
		}
		if err := v.UpdateEmail(sh.website, email, newEmail); err != nil {
			return err
		}
		okColor.Fprintln(out, "Email updated.")
		sh.listEmails()
	case "d":
		if err := v.DeletePassword(sh.website, email); err != nil {
			return err
		}
		okColor.Fprintln(out, "Entry deleted.")
		if len(v.Emails(sh.website)) == 0 {
			sh.website, sh.emails = "", nil
			sh.listWebsites()
		} else {
			sh.listEmails()
		}
	}
	return nil
}

func (sh *shell) add() error {
	p := sh.a.prompt
	url, err := p.LineDefault("Website: ", sh.website)
	if err != nil {
		return err
	}
	website := util.NormalizeWebsiteName(url)
	if website == "" {
		return errors.New("website cannot be empty")
	}
	email, err := p.LineDefault("Email: ", sh.s.DefaultEmail())
	if err != nil {
		return err
	}
	if err := util.CheckEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	pw, err := sh.a.readNewPassword(false, "Password (empty to generate): ")
	if err != nil {
		return err
	}
	if err := sh.s.Vault.AddPassword(website, email, pw); err != nil {
		return err
	}
	okColor.Fprintf(sh.a.out, "Saved %s / %s\n", website, email)
	sh.website = website
	sh.listEmails()
	return nil
}

func (sh *shell) generate(args []string) error {
	n := sh.a.cfg.PasswordLength
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid length %q", args[0])
		}
		n = v
	}
	pw, err := util.GeneratePassword(n)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.a.out, pw)
	return nil
}
