package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/sysid/internal/estimate"
)

type progressMsg estimate.Progress

type doneMsg struct{}

// FitView is a terminal view of a running estimation. It consumes
// progress snapshots from a channel and redraws the cost trace and the
// current iterate; when the channel closes the view exits.
type FitView struct {
	model   string
	names   []string
	updates <-chan estimate.Progress
	latest  estimate.Progress
	seen    bool
	done    bool
}

func NewFitView(model string, names []string, updates <-chan estimate.Progress) FitView {
	return FitView{model: model, names: names, updates: updates}
}

func (v FitView) Init() tea.Cmd {
	return v.wait()
}

func (v FitView) wait() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-v.updates
		if !ok {
			return doneMsg{}
		}
		return progressMsg(p)
	}
}

func (v FitView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return v, tea.Quit
		}

	case progressMsg:
		v.latest = estimate.Progress(msg)
		v.seen = true
		return v, v.wait()

	case doneMsg:
		v.done = true
		return v, tea.Quit
	}
	return v, nil
}

func (v FitView) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("fitting %s", v.model)))
	b.WriteString("\n")

	if !v.seen {
		b.WriteString(valueStyle.Render("waiting for first iteration..."))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q to quit"))
		return b.String()
	}

	p := v.latest
	b.WriteString(labelStyle.Render("pass"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("outer %d, inner %d", p.Outer, p.Inner)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("cost"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.6g", p.Cost)))
	b.WriteString("\n")

	for i, val := range p.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(v.names) {
			name = v.names[i]
		}
		b.WriteString(labelStyle.Render(name))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.6g", val)))
		b.WriteString("\n")
	}

	if graph := CostTrace(p.CostTrace); graph != "" {
		b.WriteString(graph)
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("q to quit"))
	return b.String()
}
