package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/sysid/internal/estimate"
)

const (
	width       = 70
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer prints estimation progress in place, redrawing at most
// frameRate times per second. It satisfies estimate.Observer.
type LiveRenderer struct {
	out       io.Writer
	model     string
	names     []string
	frameRate int
	lastFrame time.Time
}

func NewLiveRenderer(out io.Writer, model string, names []string, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 10
	}
	return &LiveRenderer{out: out, model: model, names: names, frameRate: frameRate}
}

func (r *LiveRenderer) OnIteration(p estimate.Progress) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()
	r.render(p)
}

func (r *LiveRenderer) render(p estimate.Progress) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  fitting %s  outer=%d inner=%d\n", r.model, p.Outer, p.Inner))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	b.WriteString(fmt.Sprintf("  cost %.6g\n", p.Cost))
	for i, v := range p.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(r.names) {
			name = r.names[i]
		}
		b.WriteString(fmt.Sprintf("  %-12s %.6g\n", name, v))
	}

	b.WriteString("  " + sparkline(p.CostTrace, width-4) + "\n")
	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(chars[idx])
	}
	return b.String()
}
