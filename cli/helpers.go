package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers from the user. Secrets are read without echo when
// stdin is a terminal and as plain lines otherwise.
type Prompter struct {
	reader       *bufio.Reader
	out          io.Writer
	readPassword func() ([]byte, error)
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{reader: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.readPassword = func() ([]byte, error) { return term.ReadPassword(int(f.Fd())) }
	}
	return p
}

// Line prints prompt and returns the trimmed answer.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// LineDefault is Line with def returned for an empty answer.
func (p *Prompter) LineDefault(prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s[%s] ", prompt, def)
	}
	s, err := p.Line(prompt)
	if err != nil || s != "" {
		return s, err
	}
	return def, nil
}

// Secret prints prompt and reads a line without echo.
func (p *Prompter) Secret(prompt string) (string, error) {
	if p.readPassword == nil {
		line, err := p.Line(prompt)
		return line, err
	}
	fmt.Fprint(p.out, prompt)
	pw, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Confirm asks a yes/no question; anything but y/yes is no.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	s, err := p.Line(prompt + " [y/N] ")
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}
