package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fahmaliyi/passvault/util"
	"github.com/fahmaliyi/passvault/vault"
)

type state string

const (
	stateWebsites state = "websites"
	stateEmails   state = "emails"
	stateEntry    state = "entry"
	stateAdd      state = "add"
	stateEdit     state = "edit"
)

// form field order for stateAdd; stateEdit uses only email and password.
const (
	fieldWebsite = iota
	fieldEmail
	fieldPassword
)

type clearClipboardMsg struct{ secret string }

type model struct {
	app      *app
	session  *vault.Session
	state    state
	search   textinput.Model
	items    []string
	cursor   int
	website  string
	email    string
	revealed bool
	inputs   []textinput.Model
	focus    int
	msg      string
	err      string
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("0"))
)

// RunTUI starts the interactive browser on an open session.
func RunTUI(a *app, s *vault.Session) error {
	p := tea.NewProgram(newModel(a, s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(a *app, s *vault.Session) model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	m := model{app: a, session: s, state: stateWebsites, search: search}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if c, ok := msg.(clearClipboardMsg); ok {
		clearIfUnchanged(m.app.clip, c.secret)
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		if k.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.msg, m.err = "", ""
	}

	switch m.state {
	case stateWebsites, stateEmails:
		return m.updateList(msg)
	case stateEntry:
		return m.updateEntry(msg)
	case stateAdd, stateEdit:
		return m.updateForm(msg)
	}
	return m, nil
}

func (m model) View() string {
	var s string
	switch m.state {
	case stateWebsites, stateEmails:
		s = m.viewList()
	case stateEntry:
		s = m.viewEntry()
	case stateAdd, stateEdit:
		s = m.viewForm()
	}
	if m.msg != "" {
		s += "\n" + msgStyle.Render(m.msg)
	}
	if m.err != "" {
		s += "\n" + errStyle.Render(m.err)
	}
	return s
}

// --- Lists ---

// refresh reloads the current list, filtered by the search prefix.
func (m *model) refresh() {
	var all []string
	if m.state == stateEmails {
		all = m.session.Vault.Emails(m.website)
	} else {
		all = m.session.Vault.Websites()
	}
	term := strings.ToLower(m.search.Value())
	m.items = nil
	for _, it := range all {
		if strings.HasPrefix(strings.ToLower(it), term) {
			m.items = append(m.items, it)
		}
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
}

func (m *model) setState(s state) {
	m.state = s
	m.cursor = 0
	m.search.SetValue("")
	m.search.Blur()
	m.refresh()
}

func (m model) selected() (string, bool) {
	if len(m.items) == 0 {
		return "", false
	}
	return m.items[m.cursor], true
}

func (m model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.search.Focused() {
		switch key.String() {
		case "enter":
			m.search.Blur()
		case "esc":
			m.search.SetValue("")
			m.search.Blur()
			m.refresh()
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.refresh()
			return m, cmd
		}
		return m, nil
	}

	switch key.String() {
	case "q":
		return m, tea.Quit
	case "/":
		cmd := m.search.Focus()
		return m, cmd
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "esc", "backspace":
		if m.state == stateEmails {
			m.setState(stateWebsites)
		}
	case "enter":
		item, ok := m.selected()
		if !ok {
			break
		}
		if m.state == stateWebsites {
			m.website = item
			m.setState(stateEmails)
		} else {
			m.email = item
			m.revealed = false
			m.state = stateEntry
		}
	case "a":
		prefill := ""
		if m.state == stateEmails {
			prefill = m.website
		}
		cmd := m.openAddForm(prefill)
		return m, cmd
	case "c":
		if m.state == stateEmails {
			if email, ok := m.selected(); ok {
				cmd := m.copyPassword(m.website, email)
				return m, cmd
			}
		}
	case "d":
		if m.state == stateEmails {
			if email, ok := m.selected(); ok {
				m.delete(m.website, email)
			}
		}
	}
	return m, nil
}

func (m model) viewList() string {
	var s string
	if m.state == stateEmails {
		s = titleStyle.Render(m.website) + "\n\n"
	} else {
		s = titleStyle.Render(fmt.Sprintf("Vault of %s", m.session.Username)) + "\n\n"
	}
	if m.search.Focused() || m.search.Value() != "" {
		s += m.search.View() + "\n\n"
	}
	if len(m.items) == 0 {
		s += "(nothing here)\n"
	}
	for i, it := range m.items {
		line := it
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		s += line + "\n"
	}
	if m.state == stateEmails {
		s += helpStyle.Render("\nj/k=move, enter=show, a=add, c=copy, d=delete, /=search, esc=back, q=quit")
	} else {
		s += helpStyle.Render("\nj/k=move, enter=open, a=add, /=search, q=quit")
	}
	return s
}

// --- Entry ---

func (m model) updateEntry(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "backspace":
		m.setState(stateEmails)
	case "q":
		return m, tea.Quit
	case "v":
		m.revealed = !m.revealed
	case "c":
		cmd := m.copyPassword(m.website, m.email)
		return m, cmd
	case "e":
		cmd := m.openEditForm()
		return m, cmd
	case "d":
		m.delete(m.website, m.email)
	}
	return m, nil
}

func (m model) viewEntry() string {
	pw, _ := m.session.Vault.Password(m.website, m.email)
	shown := strings.Repeat("*", 8)
	if m.revealed {
		shown = pw
	}
	s := titleStyle.Render("Entry") + "\n\n"
	s += fmt.Sprintf("Website:  %s\nEmail:    %s\nPassword: %s\n", m.website, m.email, shown)
	s += helpStyle.Render("\nv=reveal, c=copy, e=edit, d=delete, esc=back")
	return s
}

// --- Actions ---

func (m *model) copyPassword(website, email string) tea.Cmd {
	pw, ok := m.session.Vault.Password(website, email)
	if !ok {
		m.err = describe(vault.ErrNotFound)
		return nil
	}
	if err := m.app.clip.WriteAll(pw); err != nil {
		m.err = fmt.Sprintf("copy failed: %v", err)
		return nil
	}
	timeout := m.app.cfg.ClipboardTimeout
	if timeout <= 0 {
		m.msg = "Password copied!"
		return nil
	}
	m.msg = fmt.Sprintf("Password copied! (clears in %s)", timeout)
	return tea.Tick(timeout, func(time.Time) tea.Msg { return clearClipboardMsg{secret: pw} })
}

func (m *model) delete(website, email string) {
	if err := m.session.Vault.DeletePassword(website, email); err != nil {
		m.err = describe(err)
		return
	}
	if len(m.session.Vault.Emails(website)) == 0 {
		m.setState(stateWebsites)
	} else {
		m.setState(stateEmails)
	}
	m.msg = fmt.Sprintf("Deleted %s / %s", website, email)
}

// --- Forms ---

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.SetValue(value)
	return ti
}

func newPasswordInput(value string) textinput.Model {
	ti := newInput("Password (ctrl+g to generate)", value)
	ti.EchoMode = textinput.EchoPassword
	return ti
}

func (m *model) openAddForm(website string) tea.Cmd {
	m.state = stateAdd
	m.inputs = []textinput.Model{
		newInput("Website", website),
		newInput("Email", m.session.DefaultEmail()),
		newPasswordInput(""),
	}
	m.focus = fieldWebsite
	if website != "" {
		m.focus = fieldEmail
	}
	return m.inputs[m.focus].Focus()
}

func (m *model) openEditForm() tea.Cmd {
	pw, _ := m.session.Vault.Password(m.website, m.email)
	m.state = stateEdit
	m.inputs = []textinput.Model{
		newInput("Email", m.email),
		newPasswordInput(pw),
	}
	m.focus = 0
	return m.inputs[0].Focus()
}

func (m *model) passwordField() int {
	return len(m.inputs) - 1
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			if m.state == stateEdit {
				m.state = stateEntry
			} else if m.website != "" && len(m.session.Vault.Emails(m.website)) > 0 {
				m.setState(stateEmails)
			} else {
				m.setState(stateWebsites)
			}
			return m, nil
		case "tab", "down":
			cmd := m.moveFocus(1)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.moveFocus(-1)
			return m, cmd
		case "ctrl+g":
			pw, err := util.GeneratePassword(m.app.cfg.PasswordLength)
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.inputs[m.passwordField()].SetValue(pw)
			m.msg = "Generated a strong password."
			return m, nil
		case "ctrl+s":
			m.submitForm()
			return m, nil
		case "enter":
			if m.focus == m.passwordField() {
				m.submitForm()
				return m, nil
			}
			cmd := m.moveFocus(1)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *model) moveFocus(delta int) tea.Cmd {
	n := len(m.inputs)
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + n) % n
	return m.inputs[m.focus].Focus()
}

func (m *model) submitForm() {
	var err error
	if m.state == stateAdd {
		err = m.saveAdd()
	} else {
		err = m.saveEdit()
	}
	if err != nil {
		m.err = describe(err)
	}
}

func (m *model) saveAdd() error {
	website := util.NormalizeWebsiteName(m.inputs[fieldWebsite].Value())
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	pw := m.inputs[fieldPassword].Value()
	if website == "" {
		return errors.New("website cannot be empty")
	}
	if err := util.CheckEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if err := util.CheckPassword(pw); err != nil {
		return fmt.Errorf("password rejected: %w", err)
	}
	if err := m.session.Vault.AddPassword(website, email, pw); err != nil {
		return err
	}
	m.website = website
	m.setState(stateEmails)
	m.msg = fmt.Sprintf("Saved %s / %s", website, email)
	return nil
}

func (m *model) saveEdit() error {
	v := m.session.Vault
	email := strings.TrimSpace(m.inputs[0].Value())
	pw := m.inputs[1].Value()
	if err := util.CheckEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if err := util.CheckPassword(pw); err != nil {
		return fmt.Errorf("password rejected: %w", err)
	}
	if email != m.email {
		if err := v.UpdateEmail(m.website, m.email, email); err != nil {
			return err
		}
		m.email = email
	}
	if cur, _ := v.Password(m.website, email); cur != pw {
		if err := v.UpdatePassword(m.website, email, pw); err != nil {
			return err
		}
	}
	m.state = stateEntry
	m.msg = "Entry updated."
	return nil
}

func (m model) viewForm() string {
	title, labels := "Add New Entry", []string{"Website", "Email", "Password"}
	if m.state == stateEdit {
		title, labels = "Edit "+m.website, []string{"Email", "Password"}
	}
	s := titleStyle.Render(title) + "\n\n"
	for i, ti := range m.inputs {
		s += fmt.Sprintf("%-9s %s\n", labels[i]+":", ti.View())
	}
	s += helpStyle.Render("\ntab=next field, ctrl+g=generate, enter=save, esc=cancel")
	return s
}
