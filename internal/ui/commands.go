package ui

import (
	"context"

	"github.com/alpindale/tinyscripts/internal/spawn"
	"github.com/alpindale/tinyscripts/internal/species"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) loadCatalog() tea.Cmd {
	ctx, src, ch := m.ctx, m.source, m.progress
	return func() tea.Msg {
		defer close(ch)
		res, err := src.LoadCatalog(ctx, func(done, total int) {
			// drop updates the view has not caught up with
			select {
			case ch <- ProgressMsg{Done: done, Total: total}:
			default:
			}
		})
		return CatalogMsg{result: res, err: err}
	}
}

func waitForProgress(ch <-chan ProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) findSpawns(query string, speciesID int) tea.Cmd {
	ctx, src, area := m.ctx, m.source, m.area
	return func() tea.Msg {
		records, err := src.FindSpawns(ctx, area, speciesID)
		return SpawnsMsg{query: query, records: records, err: err}
	}
}

func (m Model) copySelected() tea.Cmd {
	rec, ok := m.selected()
	if !ok {
		return nil
	}
	text := FormatCoords(rec)
	copyText := m.copyText
	return func() tea.Msg {
		return CopiedMsg{text: text, err: copyText(text)}
	}
}

// Services backs Source with the real species loader and spawn client.
type Services struct {
	Loader *species.Loader
	Spawns *spawn.Client
}

func (s Services) LoadCatalog(ctx context.Context, progress func(done, total int)) (species.LoadResult, error) {
	s.Loader.Progress = progress
	return s.Loader.Load(ctx)
}

func (s Services) FindSpawns(ctx context.Context, area spawn.Area, speciesID int) ([]spawn.Record, error) {
	return s.Spawns.Find(ctx, area, speciesID)
}
