package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case ScreenSearch:
			return m.updateSearch(msg)
		case ScreenResults:
			return m.updateResults(msg)
		default:
			if msg.String() == "esc" || msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - len(m.input.Prompt) - 2; w > 0 {
			m.input.Width = w
		}
		return m, nil

	case ProgressMsg:
		m.done = msg.Done
		m.total = msg.Total
		return m, waitForProgress(m.progress)

	case CatalogMsg:
		if msg.err != nil {
			m.fatal = msg.err
			return m, tea.Quit
		}
		m.catalog = msg.result.Catalog
		m.failed = msg.result.Failed
		m.done, m.total = m.catalog.Len(), m.catalog.Len()
		m.input.SetSuggestions(m.catalog.Names())
		m.screen = ScreenSearch
		return m, m.input.Focus()

	case SpawnsMsg:
		if msg.err != nil {
			m.err = msg.err
			m.screen = ScreenSearch
			return m, m.input.Focus()
		}
		m.query = msg.query
		m.records = msg.records
		m.cursor = 0
		m.status = ""
		m.screen = ScreenResults
		m.input.Blur()
		return m, nil

	case CopiedMsg:
		if msg.err != nil {
			m.status = "clipboard unavailable: " + msg.err.Error()
		} else {
			m.status = "Copied " + msg.text
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	if m.screen == ScreenSearch {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			return m, nil
		}
		id, err := m.catalog.Lookup(name)
		if err != nil {
			m.err = err
			m.hints = m.catalog.Similar(name, 3)
			return m, nil
		}
		m.err = nil
		m.hints = nil
		m.query = name
		m.screen = ScreenSearching
		return m, m.findSpawns(name, id)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.err = nil
		m.hints = nil
	}
	return m, cmd
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case "c":
		return m, m.copySelected()
	case "esc", "n", "/":
		m.screen = ScreenSearch
		m.status = ""
		m.input.SetValue("")
		return m, m.input.Focus()
	}
	return m, nil
}
