package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tpsmap/internal/geom"
	"tpsmap/internal/loader"
)

type loadedMsg struct {
	res loader.Result
}

type locatedMsg struct {
	pos geom.LatLng
	err error
}

// sourceChangedMsg is sent when a watched data file changes on disk.
type sourceChangedMsg struct {
	path string
}

func (m Model) loadCmd() tea.Cmd {
	l, timeout := m.opts.Loader, m.opts.FetchTimeout
	return func() tea.Msg {
		if l == nil {
			return loadedMsg{res: loader.LoadSample()}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return loadedMsg{res: l.Load(ctx)}
	}
}

func (m Model) locateCmd() tea.Cmd {
	loc, timeout := m.opts.Locator, m.opts.LocateTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		pos, err := loc.Locate(ctx)
		return locatedMsg{pos: pos, err: err}
	}
}

func waitForChange(changes <-chan string) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-changes
		if !ok {
			return nil
		}
		return sourceChangedMsg{path: p}
	}
}
