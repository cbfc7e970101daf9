package ui

import (
	"context"

	"github.com/alpindale/tinyscripts/internal/spawn"
	"github.com/alpindale/tinyscripts/internal/species"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Screen int

const (
	ScreenLoading Screen = iota
	ScreenSearch
	ScreenSearching
	ScreenResults
)

const maxSuggestions = 6

// Source is the network side of the finder.
type Source interface {
	LoadCatalog(ctx context.Context, progress func(done, total int)) (species.LoadResult, error)
	FindSpawns(ctx context.Context, area spawn.Area, speciesID int) ([]spawn.Record, error)
}

type Model struct {
	ctx    context.Context
	source Source
	area   spawn.Area

	screen  Screen
	spinner spinner.Model
	input   textinput.Model

	progress chan ProgressMsg
	done     int
	total    int

	catalog *species.Catalog
	failed  []species.FailedEntry

	query   string
	records []spawn.Record
	cursor  int

	hints  []string
	status string
	err    error
	fatal  error

	copyText func(string) error
	width    int
	height   int
}

type ProgressMsg struct {
	Done  int
	Total int
}

type CatalogMsg struct {
	result species.LoadResult
	err    error
}

type SpawnsMsg struct {
	query   string
	records []spawn.Record
	err     error
}

type CopiedMsg struct {
	text string
	err  error
}

type Option func(*Model)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copyText = fn }
}

func NewModel(ctx context.Context, source Source, area spawn.Area, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	in := textinput.New()
	in.Placeholder = "pikachu"
	in.Prompt = "Species: "
	in.CharLimit = 64
	in.ShowSuggestions = true

	m := Model{
		ctx:      ctx,
		source:   source,
		area:     area,
		screen:   ScreenLoading,
		spinner:  s,
		input:    in,
		progress: make(chan ProgressMsg, 1),
		copyText: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Err is the failure that ended the program, if any.
func (m Model) Err() error {
	return m.fatal
}

// Failed lists the species the catalog could not load.
func (m Model) Failed() []species.FailedEntry {
	return m.failed
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCatalog(), waitForProgress(m.progress))
}

func (m Model) selected() (spawn.Record, bool) {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return spawn.Record{}, false
	}
	return m.records[m.cursor], true
}
