package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fahmaliyi/passvault/util"
	"github.com/fahmaliyi/passvault/vault"
)

func (a *app) addCommand() *cobra.Command {
	var generate, copyIt bool
	cmd := &cobra.Command{
		Use:   "add <url> [email]",
		Short: "Store a password for a website",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			website := util.NormalizeWebsiteName(args[0])
			if website == "" {
				return errors.New("website cannot be empty")
			}
			return a.withSession(func(s *vault.Session) error {
				var email string
				var err error
				if len(args) == 2 {
					email = args[1]
				} else if email, err = a.prompt.LineDefault("Email: ", s.DefaultEmail()); err != nil {
					return err
				}
				if err := util.CheckEmail(email); err != nil {
					return fmt.Errorf("invalid email %q: %w", email, err)
				}
				password, err := a.readNewPassword(generate, "Password (empty to generate): ")
				if err != nil {
					return err
				}
				_, existed := s.Vault.Password(website, email)
				if err := s.Vault.AddPassword(website, email, password); err != nil {
					return err
				}
				verb := "Added"
				if existed {
					verb = "Replaced"
				}
				fmt.Fprintf(a.out, "%s %s / %s\n", verb, website, email)
				if copyIt {
					return a.copyAndWait(password)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "generate a strong password")
	cmd.Flags().BoolVarP(&copyIt, "copy", "c", false, "copy the password to the clipboard")
	cmd.Flags().Int("length", 0, "generated password length")
	return cmd
}

func (a *app) getCommand() *cobra.Command {
	var copyIt bool
	cmd := &cobra.Command{
		Use:   "get <website> [email]",
		Short: "Print or copy a stored password",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			website := util.NormalizeWebsiteName(args[0])
			return a.withSession(func(s *vault.Session) error {
				email, err := a.pickEmail(s, website, args[1:])
				if err != nil {
					return err
				}
				pw, ok := s.Vault.Password(website, email)
				if !ok {
					return fmt.Errorf("%s / %s: %w", website, email, vault.ErrNotFound)
				}
				if copyIt {
					return a.copyAndWait(pw)
				}
				fmt.Fprintln(a.out, pw)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&copyIt, "copy", "c", false, "copy to the clipboard instead of printing")
	return cmd
}

// pickEmail returns the email named in rest, or the only email stored for
// website when rest is empty.
func (a *app) pickEmail(s *vault.Session, website string, rest []string) (string, error) {
	if len(rest) > 0 {
		return rest[0], nil
	}
	emails := s.Vault.Emails(website)
	switch len(emails) {
	case 0:
		return "", fmt.Errorf("%s: %w", website, vault.ErrNotFound)
	case 1:
		return emails[0], nil
	}
	for _, e := range emails {
		fmt.Fprintln(a.out, e)
	}
	return "", fmt.Errorf("%s has %d emails, name one", website, len(emails))
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [website]",
		Short: "List websites, or the emails stored for one website",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *vault.Session) error {
				var names []string
				if len(args) == 1 {
					names = s.Vault.Emails(util.NormalizeWebsiteName(args[0]))
				} else {
					names = s.Vault.Websites()
				}
				for _, n := range names {
					fmt.Fprintln(a.out, n)
				}
				return nil
			})
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <website> <email>",
		Short: "Remove a stored password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			website, email := util.NormalizeWebsiteName(args[0]), args[1]
			return a.withSession(func(s *vault.Session) error {
				if _, ok := s.Vault.Password(website, email); !ok {
					fmt.Fprintf(a.out, "Nothing stored for %s / %s\n", website, email)
					return nil
				}
				if !force {
					ok, err := a.prompt.Confirm(fmt.Sprintf("Delete %s / %s?", website, email))
					if err != nil || !ok {
						return err
					}
				}
				if err := s.Vault.DeletePassword(website, email); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %s / %s\n", website, email)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func (a *app) updatePasswordCommand() *cobra.Command {
	var generate bool
	cmd := &cobra.Command{
		Use:   "update-password <website> <email>",
		Short: "Replace the password of an existing entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			website, email := util.NormalizeWebsiteName(args[0]), args[1]
			return a.withSession(func(s *vault.Session) error {
				if _, ok := s.Vault.Password(website, email); !ok {
					return fmt.Errorf("%s / %s: %w", website, email, vault.ErrNotFound)
				}
				pw, err := a.readNewPassword(generate, "New password (empty to generate): ")
				if err != nil {
					return err
				}
				if err := s.Vault.UpdatePassword(website, email, pw); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Updated password for %s / %s\n", website, email)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "generate a strong password")
	cmd.Flags().Int("length", 0, "generated password length")
	return cmd
}

func (a *app) updateEmailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-email <website> <old-email> <new-email>",
		Short: "Rename the email of an existing entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			website, oldEmail, newEmail := util.NormalizeWebsiteName(args[0]), args[1], args[2]
			if err := util.CheckEmail(newEmail); err != nil {
				return fmt.Errorf("invalid email %q: %w", newEmail, err)
			}
			return a.withSession(func(s *vault.Session) error {
				if _, clash := s.Vault.Password(website, newEmail); clash && newEmail != oldEmail {
					fmt.Fprintf(a.out, "Replacing the existing entry for %s\n", newEmail)
				}
				if err := s.Vault.UpdateEmail(website, oldEmail, newEmail); err != nil {
					return fmt.Errorf("%s / %s: %w", website, oldEmail, err)
				}
				fmt.Fprintf(a.out, "Renamed %s to %s on %s\n", oldEmail, newEmail, website)
				return nil
			})
		},
	}
}

func (a *app) generateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a strong random password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := util.GeneratePassword(a.cfg.PasswordLength)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, pw)
			return nil
		},
	}
	cmd.Flags().Int("length", 0, "password length")
	return cmd
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the vault lives and when it was last saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, "Data directory:", a.cfg.DataDir)
			initialized, err := vault.Initialized(a.paths())
			if err != nil {
				return err
			}
			if !initialized {
				fmt.Fprintln(a.out, "Initialized:    no")
				return nil
			}
			fmt.Fprintln(a.out, "Initialized:    yes")
			return a.withSession(func(s *vault.Session) error {
				n := 0
				for _, w := range s.Vault.Websites() {
					n += len(s.Vault.Emails(w))
				}
				fmt.Fprintf(a.out, "Owner:          %s\n", s.Username)
				fmt.Fprintf(a.out, "Entries:        %d across %d websites\n", n, len(s.Vault.Websites()))
				if t := s.Vault.SavedAt(); !t.IsZero() {
					fmt.Fprintf(a.out, "Last saved:     %s\n", t.Local().Format(time.RFC1123))
				} else {
					fmt.Fprintln(a.out, "Last saved:     never")
				}
				return nil
			})
		},
	}
}

func (a *app) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Line-oriented interactive mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *vault.Session) error {
				return RunShell(a, s)
			})
		},
	}
}

// readNewPassword generates a password when asked to, or when the user
// leaves the prompt empty; typed passwords must pass the strength policy.
func (a *app) readNewPassword(generate bool, prompt string) (string, error) {
	if !generate {
		pw, err := a.prompt.Secret(prompt)
		if err != nil {
			return "", err
		}
		if pw != "" {
			if err := util.CheckPassword(pw); err != nil {
				return "", fmt.Errorf("password rejected: %w", err)
			}
			return pw, nil
		}
	}
	pw, err := util.GeneratePassword(a.cfg.PasswordLength)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(a.out, "Generated a new password.")
	return pw, nil
}

// copyAndWait copies secret and, for a one-shot command, stays alive until
// the clipboard has been cleared.
func (a *app) copyAndWait(secret string) error {
	if err := a.clip.WriteAll(secret); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	timeout := a.cfg.ClipboardTimeout
	if timeout <= 0 {
		fmt.Fprintln(a.out, "Copied to clipboard.")
		return nil
	}
	fmt.Fprintf(a.out, "Copied to clipboard. Clearing in %s...\n", timeout)
	time.Sleep(timeout)
	clearIfUnchanged(a.clip, secret)
	return nil
}
