// Package settings is the terminal editor for per-site tab limits.
//
// It mirrors the stored limits list as editable rows. Saving is all or nothing: a
// single row with an invalid host or limit blocks the whole save.
package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/tabguard/pkg/config"
	"github.com/entrhq/tabguard/pkg/limits"
)

const (
	// StatusInvalid is shown when any row fails validation
	StatusInvalid = "Please enter a valid hostname and limit."

	// StatusSaved is shown after a successful save
	StatusSaved = "Saved."

	// StatusDuration is how long StatusSaved stays visible
	StatusDuration = 2 * time.Second
)

const (
	hostColumn = iota
	limitColumn
	columnCount
)

type statusKind int

const (
	statusNone statusKind = iota
	statusOK
	statusError
)

// clearStatusMsg clears the status line unless a newer status replaced it.
type clearStatusMsg struct {
	seq int
}

type row struct {
	host  textinput.Model
	limit textinput.Model
}

func newRow(hostText, limitText string) row {
	host := textinput.New()
	host.Placeholder = "example.com"
	host.Prompt = ""
	host.Width = 32
	host.SetValue(hostText)

	limit := textinput.New()
	limit.Placeholder = "3"
	limit.Prompt = ""
	limit.Width = 6
	limit.CharLimit = 10
	limit.SetValue(limitText)

	return row{host: host, limit: limit}
}

// loadRows shows the stored list as is. Entries the enforcer would skip still get a row,
// so a save cannot drop them without the user fixing or removing them.
func loadRows(store config.Store) []row {
	raw, _ := store.Get(config.AreaSync, limits.StorageKey)
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	rows := make([]row, 0, len(list))
	for _, item := range list {
		fields, _ := item.(map[string]interface{})
		rows = append(rows, newRow(fieldText(fields["host"]), fieldText(fields["limit"])))
	}
	return rows
}

// fieldText renders a stored value for editing. Missing and falsy values are blank.
func fieldText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func (r *row) input(column int) *textinput.Model {
	if column == limitColumn {
		return &r.limit
	}
	return &r.host
}

// Model is the bubbletea model of the limits editor.
type Model struct {
	store config.Store
	keys  keyMap
	help  help.Model

	rows  []row
	focus int // row*columnCount + column

	status     string
	statusKind statusKind
	statusSeq  int

	width    int
	quitting bool
}

// New creates an editor over the limits currently in store. An empty list starts with
// one blank row.
func New(store config.Store) *Model {
	m := &Model{
		store: store,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}

	m.rows = loadRows(store)
	if len(m.rows) == 0 {
		m.rows = append(m.rows, newRow("", ""))
	}
	m.setFocus(0)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusKind = statusNone
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Save):
			return m, m.save()
		case key.Matches(msg, m.keys.Add):
			return m, m.addRow()
		case key.Matches(msg, m.keys.Remove):
			return m, m.removeRow()
		case key.Matches(msg, m.keys.Next):
			return m, m.setFocus(m.focus + 1)
		case key.Matches(msg, m.keys.Prev):
			return m, m.setFocus(m.focus - 1)
		}
	}

	input := m.focused()
	if input == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	return m, cmd
}

func (m *Model) focused() *textinput.Model {
	if len(m.rows) == 0 {
		return nil
	}
	return m.rows[m.focus/columnCount].input(m.focus % columnCount)
}

// setFocus moves focus to field i, wrapping around the rows.
func (m *Model) setFocus(i int) tea.Cmd {
	if len(m.rows) == 0 {
		m.focus = 0
		return nil
	}
	fields := len(m.rows) * columnCount
	i = ((i % fields) + fields) % fields

	if current := m.focused(); current != nil {
		current.Blur()
	}
	m.focus = i
	return m.focused().Focus()
}

func (m *Model) addRow() tea.Cmd {
	m.rows = append(m.rows, newRow("", ""))
	return m.setFocus((len(m.rows) - 1) * columnCount)
}

func (m *Model) removeRow() tea.Cmd {
	if len(m.rows) == 0 {
		return nil
	}
	index := m.focus / columnCount
	m.rows = append(m.rows[:index], m.rows[index+1:]...)
	if index >= len(m.rows) {
		index = len(m.rows) - 1
	}
	m.focus = 0
	if index < 0 {
		return nil
	}
	return m.setFocus(index * columnCount)
}

// save validates every row and writes them as a whole.
func (m *Model) save() tea.Cmd {
	entries := make([]limits.Entry, 0, len(m.rows))
	for _, r := range m.rows {
		entry, err := limits.NewEntry(r.host.Value(), r.limit.Value())
		if err != nil {
			m.setStatus(StatusInvalid, statusError)
			return nil
		}
		entries = append(entries, entry)
	}

	if err := limits.Save(m.store, entries); err != nil {
		m.setStatus(fmt.Sprintf("Failed to save: %v", err), statusError)
		return nil
	}

	// Show what was stored
	for i, entry := range entries {
		m.rows[i].host.SetValue(entry.Host)
		m.rows[i].limit.SetValue(fmt.Sprintf("%d", entry.Limit))
	}

	seq := m.setStatus(StatusSaved, statusOK)
	return tea.Tick(StatusDuration, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *Model) setStatus(text string, kind statusKind) int {
	m.statusSeq++
	m.status = text
	m.statusKind = kind
	return m.statusSeq
}

// Status returns the current status line.
func (m *Model) Status() string {
	return m.status
}

// Rows returns the current host and limit text of every row.
func (m *Model) Rows() [][2]string {
	out := make([][2]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = [2]string{r.host.Value(), r.limit.Value()}
	}
	return out
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Tab limits"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Close the newest tab when a site goes over its limit."))
	b.WriteString("\n\n")

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		columnStyle.Width(34).Render("Site"),
		columnStyle.Render("Max tabs"))
	b.WriteString(rowStyle.Render(header))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(rowStyle.Render(subtitleStyle.Render("No sites. Press ctrl+n to add one.")))
		b.WriteString("\n")
	}
	for i, r := range m.rows {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(34).Render(r.host.View()),
			r.limit.View())
		style := rowStyle
		if i == m.focus/columnCount {
			style = selectedRowStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch m.statusKind {
	case statusOK:
		b.WriteString(savedStyle.Render(m.status))
	case statusError:
		b.WriteString(invalidStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return containerStyle.Render(b.String())
}
