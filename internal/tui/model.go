// Package tui provides the BubbleTea-based notification browser.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thecrazygm/hivebar/internal/model"
)

// Source supplies notification records and the account's lastread marker.
type Source interface {
	Fetch(ctx context.Context) ([]model.Record, time.Time, error)
}

// Marker broadcasts a setLastRead for the account. A nil Marker disables
// the mark-as-read binding.
type Marker interface {
	MarkRead(ctx context.Context) (string, error)
}

const fetchTimeout = 15 * time.Second

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeSearch
	ModeHelp
)

// Model is the main TUI model.
type Model struct {
	source Source
	marker Marker

	mode Mode

	// Components
	list        list.Model
	viewport    viewport.Model
	searchInput textinput.Model
	help        help.Model

	// State
	records     []model.Record
	lastread    time.Time
	selected    *model.Record
	searchQuery string
	showRead    bool
	width       int
	height      int
	ready       bool

	keys KeyMap

	statusText string
	statusErr  bool
}

// recordItem wraps a record for the list component.
type recordItem struct {
	record model.Record
	read   bool
}

func (i recordItem) Title() string {
	return i.record.Sender() + " " + i.record.Summary()
}

func (i recordItem) Description() string {
	return fmt.Sprintf("[%s] %s", i.record.Type, i.record.RelativeTime())
}

func (i recordItem) FilterValue() string {
	return i.record.Msg + " " + i.record.URL + " " + i.record.Type
}

// recordDelegate dims already-read records.
type recordDelegate struct {
	list.DefaultDelegate
}

func newRecordDelegate() recordDelegate {
	return recordDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item, graying out records older than lastread.
func (d recordDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(recordItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	itemWidth := m.Width() - d.DefaultDelegate.Styles.NormalTitle.GetHorizontalPadding()

	var titleStyle, descStyle lipgloss.Style
	switch {
	case ri.read && isSelected:
		titleStyle = d.DefaultDelegate.Styles.SelectedTitle.Foreground(lipgloss.Color("8"))
		descStyle = d.DefaultDelegate.Styles.SelectedDesc.Foreground(lipgloss.Color("8"))
	case ri.read:
		titleStyle = d.DefaultDelegate.Styles.NormalTitle.Foreground(lipgloss.Color("8"))
		descStyle = d.DefaultDelegate.Styles.NormalDesc.Foreground(lipgloss.Color("8"))
	case isSelected:
		titleStyle = d.DefaultDelegate.Styles.SelectedTitle
		descStyle = d.DefaultDelegate.Styles.SelectedDesc
	default:
		titleStyle = d.DefaultDelegate.Styles.NormalTitle
		descStyle = d.DefaultDelegate.Styles.NormalDesc
	}

	title := ri.Title()
	if ri.read {
		title = "[r] " + title
	}
	if itemWidth > 0 && len(title) > itemWidth {
		title = title[:itemWidth-1] + "…"
	}
	desc := ri.Description()
	if itemWidth > 0 && len(desc) > itemWidth {
		desc = desc[:itemWidth-1] + "…"
	}

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

// New creates a new TUI model. showRead controls whether already-read
// records appear at startup; the a key toggles it at runtime.
func New(source Source, marker Marker, showRead bool) Model {
	delegate := newRecordDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Hive Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Placeholder = "Search..."
	searchInput.CharLimit = 100

	return Model{
		source:      source,
		marker:      marker,
		mode:        ModeList,
		list:        l,
		searchInput: searchInput,
		help:        help.New(),
		showRead:    showRead,
		keys:        DefaultKeyMap(),
	}
}

type recordsMsg struct {
	records  []model.Record
	lastread time.Time
	err      error
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

type markResultMsg struct {
	text string
	err  error
}

// Init starts the first fetch.
func (m Model) Init() tea.Cmd {
	return m.fetchRecords
}

// fetchRecords pulls records from the source.
func (m Model) fetchRecords() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	records, lastread, err := m.source.Fetch(ctx)
	return recordsMsg{records: records, lastread: lastread, err: err}
}

// markRead broadcasts setLastRead through the marker.
func (m Model) markRead() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	text, err := m.marker.MarkRead(ctx)
	return markResultMsg{text: text, err: err}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.SetSize(msg.Width, msg.Height-2)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		return m, nil

	case recordsMsg:
		if msg.err != nil {
			return m, status("Fetch failed: "+msg.err.Error(), true)
		}
		m.records = msg.records
		m.lastread = msg.lastread
		m.list.SetItems(m.buildListItems())
		return m, nil

	case markResultMsg:
		if msg.err != nil {
			return m, status("Mark as read failed: "+msg.err.Error(), true)
		}
		return m, tea.Batch(m.fetchRecords, status(msg.text, false))

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)

	case statusMsg:
		m.statusText = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusText = ""
		m.statusErr = false
		return m, nil
	}

	switch m.mode {
	case ModeList:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	case ModeDetail:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case ModeSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys, except while typing a search
	if m.mode != ModeSearch {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			if m.mode == ModeHelp {
				m.mode = ModeList
			} else {
				m.mode = ModeHelp
			}
			return m, nil
		}
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.list.SelectedItem().(recordItem); ok {
			m.selected = &item.record
			m.mode = ModeDetail
			m.viewport.SetContent(renderDetail(item.record))
			m.viewport.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyURL):
		if item, ok := m.list.SelectedItem().(recordItem); ok {
			return m, copyCmd(recordLink(item.record))
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyMsg):
		if item, ok := m.list.SelectedItem().(recordItem); ok {
			return m, copyCmd(item.record.Msg)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		if m.marker == nil {
			return m, status("No posting key available, cannot mark as read", true)
		}
		return m, m.markRead

	case key.Matches(msg, m.keys.ToggleRead):
		m.showRead = !m.showRead
		m.list.SetItems(m.buildListItems())
		if m.showRead {
			return m, status("Showing all notifications", false)
		}
		return m, status("Hiding read notifications", false)

	case key.Matches(msg, m.keys.Search):
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.list.SetItems(m.buildListItems())
		m.mode = ModeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchRecords
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.CopyURL):
		if m.selected != nil {
			return m, copyCmd(recordLink(*m.selected))
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyMsg):
		if m.selected != nil {
			return m, copyCmd(m.selected.Msg)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.list.SetItems(m.buildListItems())
		return m, nil

	case tea.KeyEnter:
		if item, ok := m.list.SelectedItem().(recordItem); ok {
			m.selected = &item.record
			m.mode = ModeDetail
			m.searchInput.Blur()
			m.viewport.SetContent(renderDetail(item.record))
			m.viewport.GotoTop()
		}
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Live filtering on each keystroke
	m.searchQuery = m.searchInput.Value()
	m.list.SetItems(m.buildListItems())

	return m, cmd
}

// buildListItems creates list items from the current records, applying the
// read filter and the search query.
func (m Model) buildListItems() []list.Item {
	var items []list.Item
	query := strings.ToLower(m.searchQuery)

	for _, r := range m.records {
		read := !r.Date.After(m.lastread)
		if read && !m.showRead {
			continue
		}
		if query != "" && !matchesQuery(r, query) {
			continue
		}
		items = append(items, recordItem{record: r, read: read})
	}
	return items
}

func matchesQuery(r model.Record, query string) bool {
	return strings.Contains(strings.ToLower(r.Msg), query) ||
		strings.Contains(strings.ToLower(r.URL), query) ||
		strings.Contains(strings.ToLower(r.Type), query)
}

// recordLink builds a web link for a record.
func recordLink(r model.Record) string {
	if r.URL == "" {
		return ""
	}
	return "https://hive.blog/" + r.URL
}

// renderDetail renders the detail view for a record.
func renderDetail(r model.Record) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	var s string
	s += headerStyle.Render(r.Sender()) + "\n\n"
	s += labelStyle.Render("Type: ") + r.Type + "\n"
	s += labelStyle.Render("Time: ") + r.RelativeTime() + "\n"
	if r.Score != 0 {
		s += labelStyle.Render("Score: ") + fmt.Sprintf("%d", r.Score) + "\n"
	}
	s += "\n" + labelStyle.Render("Message:") + "\n"
	s += r.Msg + "\n"
	if link := recordLink(r); link != "" {
		s += "\n" + labelStyle.Render("Link: ") + link + "\n"
	}
	return s
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeDetail:
		return m.viewDetail()
	case ModeSearch:
		return m.viewSearch()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m Model) viewList() string {
	s := m.list.View()

	if m.statusText != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return s + "\n" + statusStyle.Render(m.statusText)
	}
	return s + "\n" + keybindBar("list")
}

func (m Model) viewDetail() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Render("Notification Detail")
	return header + "\n" + m.viewport.View() + "\n" + keybindBar("detail")
}

func (m Model) viewSearch() string {
	countStr := fmt.Sprintf("(%d matches)", len(m.list.Items()))
	searchBar := "Search: " + m.searchInput.View() + " " +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(countStr)
	return searchBar + "\n" + m.list.View() + "\n" + keybindBar("search")
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	s += sectionStyle.Render("Navigation") + "\n"
	s += keyStyle.Render("  j/k, ↑/↓") + "     Move up/down\n"
	s += keyStyle.Render("  pgup/pgdn") + "    Page up/down\n"
	s += "\n"

	s += sectionStyle.Render("Actions") + "\n"
	s += keyStyle.Render("  enter") + "        View notification details\n"
	s += keyStyle.Render("  c") + "            Copy link to clipboard\n"
	s += keyStyle.Render("  s") + "            Copy message to clipboard\n"
	s += keyStyle.Render("  m") + "            Mark all notifications as read\n"
	s += keyStyle.Render("  a") + "            Toggle showing read notifications\n"
	s += keyStyle.Render("  /") + "            Search\n"
	s += keyStyle.Render("  r") + "            Refresh\n"
	s += "\n"

	s += sectionStyle.Render("General") + "\n"
	s += keyStyle.Render("  ?") + "            Toggle this help\n"
	s += keyStyle.Render("  esc") + "          Back / Cancel\n"
	s += keyStyle.Render("  q") + "            Quit\n"

	s += "\n" + sectionStyle.Render("Press ? or esc to return")
	return s
}

// keybindBar renders the footer hints for a mode.
func keybindBar(mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds [][2]string
	switch mode {
	case "list":
		binds = [][2]string{
			{"q", "quit"}, {"enter", "view"}, {"?", "help"}, {"/", "search"},
			{"m", "mark read"}, {"a", "all"}, {"c", "copy link"}, {"r", "refresh"},
		}
	case "detail":
		binds = [][2]string{
			{"q", "quit"}, {"esc", "back"}, {"c", "copy link"},
			{"s", "copy message"}, {"j/k", "scroll"},
		}
	case "search":
		binds = [][2]string{
			{"enter", "view"}, {"esc", "close"}, {"↑/↓", "navigate"},
		}
	}

	parts := make([]string, 0, len(binds))
	for _, b := range binds {
		parts = append(parts, keyStyle.Render(b[0])+" "+b[1])
	}
	return style.Render(strings.Join(parts, "  "))
}

// Run starts the browser and blocks until it exits.
func Run(source Source, marker Marker, showRead bool) error {
	p := tea.NewProgram(New(source, marker, showRead), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
