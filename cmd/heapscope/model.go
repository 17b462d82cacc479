package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/gckit/gc"
)

// refreshInterval is how often the display resamples the heap.
const refreshInterval = 250 * time.Millisecond

// Model is the main application model.
type Model struct {
	rt   *gc.Runtime
	work *workload

	snap       gc.Snapshot
	lastReport gc.PassReport
	haveReport bool

	width  int
	height int

	paused        bool
	statusMessage string
	err           error
}

// NewModel creates a new TUI model over a running workload.
func NewModel(rt *gc.Runtime, work *workload) Model {
	return Model{
		rt:   rt,
		work: work,
		snap: rt.Snapshot(),
	}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Messages

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type passMsg gc.PassReport

type refreshMsg struct{}
