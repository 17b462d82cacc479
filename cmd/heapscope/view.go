package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/inhies/go-bytesize"
)

// View renders the entire UI.
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	header := m.renderHeader()
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderHeapPane(),
		m.renderActivityPane(),
	)
	status := m.renderStatus()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		status,
	)
}

func (m Model) renderHeader() string {
	title := headerStyle.Render("Heapscope")
	state := "running"
	if m.paused {
		state = pausedStyle.Render("paused")
	}
	sub := subtitleStyle.Render(fmt.Sprintf("workload %s", state))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", sub)
}

// renderHeapPane shows occupancy: segment bar, byte totals, and the
// per-generation object counts.
func (m Model) renderHeapPane() string {
	var b strings.Builder

	b.WriteString(paneTitleStyle.Render("Heap"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Segment  "))
	b.WriteString(m.renderBar(m.snap.SegmentUsed, m.snap.SegmentCapacity, 30))
	b.WriteString(fmt.Sprintf(" %s / %s\n",
		bytesize.New(float64(m.snap.SegmentUsed)),
		bytesize.New(float64(m.snap.SegmentCapacity)),
	))

	b.WriteString(labelStyle.Render("In use   "))
	b.WriteString(valueStyle.Render(bytesize.New(float64(m.snap.UsedBytes)).String()))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Objects  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.snap.Objects)))
	b.WriteString("\n\n")

	b.WriteString(paneTitleStyle.Render("Generations"))
	b.WriteString("\n")
	total := m.snap.Objects
	for gen, n := range m.snap.ByGeneration {
		b.WriteString(labelStyle.Render(fmt.Sprintf("gen %d    ", gen)))
		b.WriteString(m.renderBar(int64(n), int64(max(total, 1)), 30))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" %d", n)))
		b.WriteString("\n")
	}

	return paneStyle.Width(m.paneWidth()).Render(b.String())
}

// renderActivityPane shows the accumulated collector counters and the
// most recent manual pass.
func (m Model) renderActivityPane() string {
	var b strings.Builder

	b.WriteString(paneTitleStyle.Render("Collector"))
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Passes", fmt.Sprintf("%d (%d full)", m.snap.Collections, m.snap.FullCollections)},
		{"Reclaimed", fmt.Sprintf("%d objects, %s", m.snap.ObjectsReclaimed, bytesize.New(float64(m.snap.BytesReclaimed)))},
		{"Promoted", fmt.Sprintf("%d", m.snap.ObjectsPromoted)},
		{"Relocated", fmt.Sprintf("%d", m.snap.CellsRelocated)},
		{"Weak cleared", fmt.Sprintf("%d", m.snap.WeakRefsCleared)},
		{"Weak live", fmt.Sprintf("%d", m.snap.WeakRefs)},
		{"Finalizers", fmt.Sprintf("%d queued, %d run", m.snap.FinalizersQueued, m.snap.FinalizersRun)},
		{"Pending", fmt.Sprintf("%d", m.snap.PendingFinalizers)},
		{"Remembered", fmt.Sprintf("%d edges", m.snap.RememberedEdges)},
		{"Last pause", m.snap.LastPause.Round(time.Microsecond).String()},
		{"Total pause", m.snap.TotalPause.Round(time.Microsecond).String()},
	}
	for _, row := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-13s", row.label)))
		b.WriteString(valueStyle.Render(row.value))
		b.WriteString("\n")
	}

	allocs, failures := m.work.counts()
	b.WriteString("\n")
	b.WriteString(paneTitleStyle.Render("Workload"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-13s", "Allocations")))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", allocs)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-13s", "Failures")))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", failures)))
	b.WriteString("\n")

	if m.haveReport {
		b.WriteString("\n")
		b.WriteString(paneTitleStyle.Render("Last manual pass"))
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(fmt.Sprintf(
			"scope=%d marked=%d reclaimed=%d promoted=%d relocated=%d",
			m.lastReport.Scope, m.lastReport.Marked, m.lastReport.Reclaimed,
			m.lastReport.Promoted, m.lastReport.Relocated,
		)))
		b.WriteString("\n")
	}

	return paneStyle.Width(m.paneWidth()).Render(b.String())
}

// renderBar draws a fixed-width occupancy bar, switching to the warning
// color above 80%.
func (m Model) renderBar(used, capacity int64, width int) string {
	if capacity <= 0 {
		capacity = 1
	}
	filled := int(used * int64(width) / capacity)
	if filled > width {
		filled = width
	}

	fill := barFillStyle
	if used*5 > capacity*4 {
		fill = barHighStyle
	}
	return fill.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func (m Model) renderStatus() string {
	help := helpStyle.Render("p pause · y young pass · c full pass · f finalizers · i integrity · q quit")
	if m.statusMessage != "" {
		return statusStyle.Render(m.statusMessage + "  " + help)
	}
	return statusStyle.Render(help)
}

func (m Model) paneWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width/2-2, 40)
}
