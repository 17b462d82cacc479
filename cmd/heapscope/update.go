package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/gckit/cmd/heapscope/logger"
	"github.com/joshuapare/gckit/gc"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.snap = m.rt.Snapshot()
		return m, tick()

	case passMsg:
		m.lastReport = gc.PassReport(msg)
		m.haveReport = true
		m.snap = m.rt.Snapshot()
		return m, nil

	case refreshMsg:
		m.snap = m.rt.Snapshot()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "p":
		m.paused = m.work.togglePause()
		if m.paused {
			m.statusMessage = "workload paused"
		} else {
			m.statusMessage = "workload running"
		}
		return m, nil

	case "y":
		// Young pass only.
		return m, m.collect(0)

	case "c":
		return m, m.collect(m.rt.MaxGeneration())

	case "f":
		return m, func() tea.Msg {
			ran, err := m.rt.RunFinalizers(context.Background())
			if err != nil {
				logger.Error("finalizer drain", "error", err)
			}
			logger.Info("finalizers drained", "ran", ran)
			return refreshMsg{}
		}

	case "i":
		if err := m.rt.CheckIntegrity(); err != nil {
			m.err = err
			logger.Error("integrity check failed", "error", err)
		} else {
			m.statusMessage = "heap integrity: ok"
		}
		return m, nil
	}

	return m, nil
}

// collect runs a pass off the update loop and reports back.
func (m Model) collect(maxGen int) tea.Cmd {
	return func() tea.Msg {
		rep := m.rt.Collect(maxGen)
		logger.Debug("manual pass",
			"scope", rep.Scope,
			"reclaimed", rep.Reclaimed,
			"pause", rep.Pause,
		)
		return passMsg(rep)
	}
}
