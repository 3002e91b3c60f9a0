// Package tui is the Bubble Tea front end of the editor. It owns the title
// and body widgets and forwards every edit to a suggest.Session, rendering
// the session's suggestion as ghost text below the body.
package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/prosewrites/draftline/internal/assist"
	"github.com/prosewrites/draftline/internal/stats"
	"github.com/prosewrites/draftline/internal/suggest"
	"go.uber.org/zap"
)

const titleLabel = "Title "

type focusArea int

const (
	focusTitle focusArea = iota
	focusBody
)

// SavedMsg reports the result of a save. Send it to the program from
// background savers so the status bar reflects it.
type SavedMsg struct {
	Err error
}

// resultMsg wraps a suggest.Result for the tea.Msg interface.
type resultMsg suggest.Result

// updateMsg carries a newer release version.
type updateMsg string

// noticeMsg is a short-lived message for the status bar.
type noticeMsg string

// Model is the Bubble Tea model for the editor.
type Model struct {
	session *suggest.Session

	keymap     *KeyMap
	dialogKeys *KeyMap
	styles     Styles

	title   textinput.Model
	body    textarea.Model
	spinner spinner.Model
	focus   focusArea

	spinning      bool
	denied        *assist.AccessDeniedError
	notice        string
	updateVersion string

	save      func() error
	openURL   func(url string) error
	clipboard func(text string) error
	updates   <-chan string

	width    int
	height   int
	quitting bool

	logger *zap.Logger
}

// Config holds configuration for creating a new Model.
type Config struct {
	// Session receives every edit. Required.
	Session *suggest.Session

	// KeyMap provides editing key bindings. If nil, DefaultKeyMap is used.
	KeyMap *KeyMap

	// DialogKeyMap provides dialog key bindings. If nil, DialogKeyMap is used.
	DialogKeyMap *KeyMap

	// Save persists the document immediately. Optional.
	Save func() error

	// OpenURL opens a link in the browser. Defaults to OpenBrowser.
	OpenURL func(url string) error

	// Clipboard writes text to the system clipboard.
	// Defaults to clipboard.WriteAll.
	Clipboard func(text string) error

	// Updates yields a newer release version, if one is found.
	Updates <-chan string

	// UpdateVersion is a newer version already known at startup.
	UpdateVersion string

	// Width and Height are the initial terminal size.
	Width  int
	Height int

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// New creates a new editor Model showing the session's current content.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	keymap := cfg.KeyMap
	if keymap == nil {
		keymap = DefaultKeyMap()
	}

	dialogKeys := cfg.DialogKeyMap
	if dialogKeys == nil {
		dialogKeys = DialogKeyMap()
	}

	openURL := cfg.OpenURL
	if openURL == nil {
		openURL = OpenBrowser
	}

	writeClipboard := cfg.Clipboard
	if writeClipboard == nil {
		writeClipboard = clipboard.WriteAll
	}

	width := cfg.Width
	if width <= 0 {
		width = 80
	}

	height := cfg.Height
	if height <= 0 {
		height = 24
	}

	title := textinput.New()
	title.Prompt = ""
	title.Placeholder = "Give your piece a title"
	title.CharLimit = 200
	title.SetValue(cfg.Session.Title())

	body := textarea.New()
	body.Prompt = ""
	body.Placeholder = "Start writing..."
	body.ShowLineNumbers = false
	body.CharLimit = 0
	body.MaxHeight = 0
	body.SetValue(cfg.Session.Body())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorYellow)

	m := Model{
		session:       cfg.Session,
		keymap:        keymap,
		dialogKeys:    dialogKeys,
		styles:        DefaultStyles(),
		title:         title,
		body:          body,
		spinner:       sp,
		updateVersion: cfg.UpdateVersion,
		save:          cfg.Save,
		openURL:       openURL,
		clipboard:     writeClipboard,
		updates:       cfg.Updates,
		width:         width,
		height:        height,
		logger:        logger,
	}

	if strings.TrimSpace(cfg.Session.Title()) == "" {
		m.focus = focusTitle
		m.title.Focus()
	} else {
		m.focus = focusBody
		m.body.Focus()
	}

	m.layout()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForUpdate(m.updates))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.layout()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.denied != nil {
			return m.handleDialogKey(msg)
		}
		return m.handleKey(msg)

	case resultMsg:
		return m.handleResult(suggest.Result(msg))

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SavedMsg:
		if msg.Err != nil {
			m.notice = "Save failed"
		} else {
			m.notice = "Saved"
		}
		return m, nil

	case updateMsg:
		m.updateVersion = string(msg)
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		return m, nil
	}

	return m.updateFocused(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.denied != nil {
		return renderDialog(m.denied, m.width, m.height, m.dialogKeys, m.styles)
	}

	header := m.styles.Header.Render("draftline")
	if m.updateVersion != "" {
		header += "  " + m.styles.Update.Render(fmt.Sprintf("v%s available", m.updateVersion))
	}

	sections := []string{
		header,
		m.styles.TitleLabel.Render(titleLabel) + m.title.View(),
		m.styles.Divider.Render(strings.Repeat("─", m.width)),
		m.body.View(),
	}

	if panel := m.suggestionPanel(); panel != "" {
		sections = append(sections, panel)
	}

	sections = append(sections, m.statusBar(), renderHelp(m.keymap, m.styles))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// handleKey dispatches a key press while editing.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.keymap.Lookup(msg) {
	case ActionAcceptSuggestion:
		if accepted, ch, ok := m.session.Accept(); ok {
			m.setBody(accepted.Body, accepted.Cursor)
			return m, m.track(ch)
		}
		return m.switchFocus()

	case ActionRetrySuggestion:
		if m.session.HasSuggestion() {
			return m, m.track(m.session.Retry())
		}
		return m.switchFocus()

	case ActionDismissSuggestion:
		m.session.Dismiss()
		return m.focusOn(focusBody)

	case ActionNextField:
		if m.focus == focusTitle {
			return m.focusOn(focusBody)
		}

	case ActionSwitchFocus:
		return m.switchFocus()

	case ActionSave:
		return m, m.saveCmd()

	case ActionCopyDocument:
		return m, m.copyCmd(m.session.Body())

	case ActionQuit:
		m.quitting = true
		m.session.Close()
		return m, tea.Quit
	}

	return m.edit(msg)
}

// handleDialogKey answers the access dialog.
func (m Model) handleDialogKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.dialogKeys.Lookup(msg) {
	case ActionConfirm:
		url := m.denied.RedirectURL
		m.denied = nil
		if url == "" {
			return m, nil
		}
		return m, m.openLinkCmd(url)

	case ActionDecline:
		m.denied = nil

	case ActionQuit:
		m.quitting = true
		m.session.Close()
		return m, tea.Quit
	}

	return m, nil
}

// edit passes a key to the focused widget and reports any content change
// to the session.
func (m Model) edit(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.focus {
	case focusTitle:
		before := m.title.Value()
		m.title, cmd = m.title.Update(msg)
		if after := m.title.Value(); after != before {
			m.notice = ""
			return m, tea.Batch(cmd, m.track(m.session.SetTitle(after)))
		}

	case focusBody:
		before := m.body.Value()
		m.body, cmd = m.body.Update(msg)
		if after := m.body.Value(); after != before {
			m.notice = ""
			return m, tea.Batch(cmd, m.track(m.session.SetBody(after, cursorOffset(m.body))))
		}
	}

	return m, cmd
}

// updateFocused forwards non-key messages such as cursor blinks.
func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusBody:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

func (m Model) handleResult(r suggest.Result) (Model, tea.Cmd) {
	outcome := m.session.Deliver(r)
	m.logger.Debug("suggestion result", zap.Int64("seq", r.Seq), zap.Stringer("outcome", outcome))

	if outcome == suggest.OutcomeDenied {
		m.denied = m.session.TakeDenied()
	}

	return m, nil
}

func (m Model) switchFocus() (Model, tea.Cmd) {
	if m.focus == focusTitle {
		return m.focusOn(focusBody)
	}
	return m.focusOn(focusTitle)
}

func (m Model) focusOn(f focusArea) (Model, tea.Cmd) {
	m.focus = f
	if f == focusTitle {
		m.body.Blur()
		return m, m.title.Focus()
	}
	m.title.Blur()
	return m, m.body.Focus()
}

// track turns a session result channel into a command, starting the
// spinner if a request is now pending.
func (m *Model) track(ch <-chan suggest.Result) tea.Cmd {
	cmds := []tea.Cmd{waitForResult(ch)}
	if m.busy() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) busy() bool {
	state := m.session.State()
	return state == suggest.StatePending || state == suggest.StateLoading
}

// setBody replaces the textarea content and places the cursor at the given
// rune offset.
func (m *Model) setBody(body string, cursor int) {
	row, col := rowCol(body, cursor)

	m.body.SetValue(body)
	for i := 0; m.body.Line() > row && i <= len(body); i++ {
		m.body.CursorUp()
	}
	m.body.SetCursor(col)
}

// layout sizes the widgets to the terminal, leaving room for the
// suggestion panel when one is shown.
func (m *Model) layout() {
	m.title.Width = max(m.width-utf8.RuneCountInString(titleLabel)-1, 10)
	m.body.SetWidth(m.width)

	// header, title, divider, status bar, help
	chrome := 5
	if panel := m.suggestionPanel(); panel != "" {
		chrome += lipgloss.Height(panel)
	}
	m.body.SetHeight(max(m.height-chrome, 3))
}

func (m Model) suggestionPanel() string {
	s, ok := m.session.Active()
	if !ok {
		return ""
	}
	return renderSuggestion(s, m.width, m.keymap, m.styles)
}

func (m Model) statusBar() string {
	status := m.session.Status()

	left := m.styles.Status[status.Kind].Render(status.Message)
	if m.busy() {
		left = m.spinner.View() + " " + left
	}
	if m.notice != "" {
		left += "  " + m.styles.Notice.Render(m.notice)
	}

	right := m.styles.Stats.Render(stats.Compute(m.session.Body()).String())

	return renderStatusBar(left, right, m.width)
}

func (m Model) saveCmd() tea.Cmd {
	if m.save == nil {
		return nil
	}
	save := m.save
	return func() tea.Msg {
		return SavedMsg{Err: save()}
	}
}

func (m Model) copyCmd(text string) tea.Cmd {
	write := m.clipboard
	logger := m.logger
	return func() tea.Msg {
		if err := write(text); err != nil {
			logger.Warn("failed to copy to clipboard", zap.Error(err))
			return noticeMsg("Copy failed")
		}
		return noticeMsg("Copied to clipboard")
	}
}

// openLinkCmd opens url in the browser, falling back to the clipboard.
func (m Model) openLinkCmd(url string) tea.Cmd {
	open := m.openURL
	write := m.clipboard
	logger := m.logger
	return func() tea.Msg {
		err := open(url)
		if err == nil {
			return noticeMsg("Opened subscription page")
		}
		logger.Warn("failed to open browser", zap.String("url", url), zap.Error(err))

		if err := write(url); err != nil {
			logger.Warn("failed to copy link", zap.Error(err))
			return noticeMsg("Visit " + url)
		}
		return noticeMsg("Link copied to clipboard")
	}
}

func waitForResult(ch <-chan suggest.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return resultMsg(r)
	}
}

func waitForUpdate(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		version, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg(version)
	}
}

// cursorOffset returns the textarea cursor as a rune offset into Value().
func cursorOffset(ta textarea.Model) int {
	lines := strings.Split(ta.Value(), "\n")
	row := ta.Line()

	offset := 0
	for i := 0; i < row && i < len(lines); i++ {
		offset += utf8.RuneCountInString(lines[i]) + 1
	}

	li := ta.LineInfo()
	return offset + li.StartColumn + li.ColumnOffset
}

// rowCol converts a rune offset into a line index and a rune column.
func rowCol(text string, offset int) (int, int) {
	row, col := 0, 0
	i := 0
	for _, r := range text {
		if i >= offset {
			break
		}
		if r == '\n' {
			row++
			col = 0
		} else {
			col++
		}
		i++
	}
	return row, col
}
