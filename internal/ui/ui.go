package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gestaopro/internal/formatter"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	SectionsView
	RecordsView
)

const (
	usernameField = iota
	passwordField
)

// SessionManager is the part of the session the TUI drives.
type SessionManager interface {
	Login(ctx context.Context, username, password string) bool
	Logout()
	User() (models.User, bool)
	Permissions() []models.Permission
}

// RecordLister fetches the records of an entity.
type RecordLister interface {
	List(ctx context.Context, entity string) ([]models.Record, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	session   SessionManager
	backend   RecordLister
	width     int
	height    int
	inputs    []textinput.Model
	focus     int
	busy      bool
	loginErr  string
	sections  list.Model
	section   models.Permission
	records   []models.Record
	recordErr error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, session SessionManager, backend RecordLister) *Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Prompt = "Username: "
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return &Model{
		ctx:     ctx,
		view:    LoginView,
		session: session,
		backend: backend,
		inputs:  []textinput.Model{username, password},
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the cursor blink of the focused input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// View returns the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case SectionsView:
		return m.renderSections()
	case RecordsView:
		return m.renderRecords()
	default:
		return ""
	}
}

// State returns the current view.
func (m *Model) State() ViewState {
	return m.view
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == SectionsView {
			m.sections.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case SectionsView:
			return m.handleSectionKeys(msg)
		case RecordsView:
			return m.handleRecordKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgLoginResult:
			return m.handleLoginResult(msg.data.(bool))
		case MsgRecordsFetched:
			data := msg.data.(recordsData)
			if data.section != m.section {
				return m, nil
			}
			m.busy = false
			m.records = data.records
			m.recordErr = data.err
			return m, nil
		}
	}

	return m.updateInputs(msg)
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort), key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case m.busy:
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.prev):
		return m, m.setFocus(m.focus - 1)
	case key.Matches(msg, m.keys.enter):
		if m.focus == usernameField {
			return m, m.setFocus(passwordField)
		}
		return m, m.submit()
	}

	return m.updateInputs(msg)
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	cmds := make([]tea.Cmd, len(m.inputs))
	for j := range m.inputs {
		if j == m.focus {
			cmds[j] = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) submit() tea.Cmd {
	username := strings.TrimSpace(m.inputs[usernameField].Value())
	password := m.inputs[passwordField].Value()
	if username == "" || password == "" {
		m.loginErr = "username and password are required"
		return nil
	}

	m.busy = true
	m.loginErr = ""
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return loginResultMsg(session.Login(ctx, username, password))
	}
}

func (m *Model) handleLoginResult(ok bool) (tea.Model, tea.Cmd) {
	m.busy = false
	m.inputs[passwordField].Reset()

	if !ok {
		m.loginErr = shared.ErrInvalidCredentials.Error()
		return m, m.setFocus(passwordField)
	}

	m.loginErr = ""
	m.sections = list.New(sectionItems(m.session.Permissions()), list.NewDefaultDelegate(), 0, 0)
	m.sections.Title = "Sections"
	if u, ok := m.session.User(); ok {
		m.sections.Title = fmt.Sprintf("Sections for %s (%s)", u.Username, u.Role)
	}
	m.sections.SetSize(m.listSize())
	m.view = SectionsView
	return m, nil
}

// listSize falls back to 80x24 until the first WindowSizeMsg arrives.
func (m *Model) listSize() (int, int) {
	w, h := m.width, m.height
	if w <= 0 || h <= 0 {
		w, h = 80, 24
	}
	return w - 4, h - 6
}

func (m *Model) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sections.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.sections, cmd = m.sections.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		return m.logout()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.sections.SelectedItem().(sectionItem); ok {
			m.section = item.section
			m.view = RecordsView
			return m, m.fetchRecords()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.sections, cmd = m.sections.Update(msg)
	return m, cmd
}

func (m *Model) handleRecordKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SectionsView
		m.records, m.recordErr = nil, nil
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchRecords()
	case key.Matches(msg, m.keys.logout):
		return m.logout()
	}
	return m, nil
}

func (m *Model) logout() (tea.Model, tea.Cmd) {
	m.session.Logout()
	m.view = LoginView
	m.section = ""
	m.records, m.recordErr = nil, nil
	m.inputs[usernameField].Reset()
	m.inputs[passwordField].Reset()
	return m, m.setFocus(usernameField)
}

func (m *Model) fetchRecords() tea.Cmd {
	m.busy = true
	m.records, m.recordErr = nil, nil
	ctx, backend, section := m.ctx, m.backend, m.section
	return func() tea.Msg {
		records, err := backend.List(ctx, models.EntityForPermission(section))
		return recordsFetchedMsg(section, records, err)
	}
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != LoginView {
		return m, nil
	}
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("gestaopro"))
	b.WriteString("\n")

	for i := range m.inputs {
		style := styles.blurred
		if i == m.focus {
			style = styles.focused
		}
		b.WriteString(style.Render(m.inputs[i].View()))
		b.WriteString("\n")
	}

	switch {
	case m.busy:
		b.WriteString("\n" + styles.warn.Render("Signing in..."))
	case m.loginErr != "":
		b.WriteString("\n" + styles.err.Render(m.loginErr))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n\n%s", styles.box.Render(b.String()), helpView)
}

func (m *Model) renderSections() string {
	if len(m.sections.Items()) == 0 {
		msg := styles.warn.Render("Your account has no sections with records.")
		return fmt.Sprintf("%s\n\n%s", msg, m.help.ShortHelpView([]key.Binding{m.keys.logout, m.keys.quit}))
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.logout, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.sections.View(), helpView)
}

func (m *Model) renderRecords() string {
	title := styles.title.Render(m.section.Title())
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.refresh, m.keys.logout, m.keys.quit})

	var body string
	switch {
	case m.busy:
		body = styles.warn.Render("Loading...")
	case m.recordErr != nil:
		body = styles.err.Render(shared.UserMessage(m.recordErr))
	default:
		table, err := formatter.RecordsToTable(m.records)
		if err != nil {
			body = styles.err.Render(err.Error())
		} else {
			body = fmt.Sprintf("%s\n%s", styles.ok.Render(fmt.Sprintf("%d records", len(m.records))), table)
		}
	}

	return fmt.Sprintf("%s\n%s\n%s", title, body, helpView)
}
